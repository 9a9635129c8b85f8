/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tradepost-hq/tradepost/config"
)

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecretKeyAuthMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func TestSecretKeyAuthMiddleware_MissingKey(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{SecretKey: "super-secret"},
	})
	router := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSecretKeyAuthMiddleware_InvalidKey(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{SecretKey: "super-secret"},
	})
	router := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tradepost-Key", "wrong")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSecretKeyAuthMiddleware_ValidKey(t *testing.T) {
	config.MockConfig(&config.Configuration{
		Server: config.ServerConfig{SecretKey: "super-secret"},
	})
	router := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tradepost-Key", "super-secret")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSecretKeyAuthMiddleware_Unconfigured(t *testing.T) {
	config.MockConfig(&config.Configuration{})
	router := authTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tradepost-Key", "anything")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
