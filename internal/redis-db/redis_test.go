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

package redis_db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		skipTLSVerify bool
		wantAddr      string
		wantPassword  string
		wantTLS       bool
		wantInsecure  bool
	}{
		{
			name:     "docker style address",
			url:      "redis:6379",
			wantAddr: "redis:6379",
		},
		{
			name:         "url with password",
			url:          "redis://:password123@localhost:6379",
			wantAddr:     "localhost:6379",
			wantPassword: "password123",
		},
		{
			name:     "hosted instance without scheme",
			url:      "tradepost.redis.cache.windows.net:6380",
			wantAddr: "tradepost.redis.cache.windows.net:6380",
		},
		{
			name:     "rediss scheme enables TLS",
			url:      "rediss://queue.tradepost.internal:6380",
			wantAddr: "queue.tradepost.internal:6380",
			wantTLS:  true,
		},
		{
			name:          "skip verify only applies when TLS is on",
			url:           "rediss://queue.tradepost.internal:6380",
			skipTLSVerify: true,
			wantAddr:      "queue.tradepost.internal:6380",
			wantTLS:       true,
			wantInsecure:  true,
		},
		{
			name:          "skip verify ignored for plaintext",
			url:           "localhost:6379",
			skipTLSVerify: true,
			wantAddr:      "localhost:6379",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRedisURL(tt.url, tt.skipTLSVerify)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantAddr, got.Addr)
			assert.Equal(t, tt.wantPassword, got.Password)
			if tt.wantTLS {
				assert.NotNil(t, got.TLSConfig)
				assert.Equal(t, tt.wantInsecure, got.TLSConfig.InsecureSkipVerify)
			} else {
				assert.Nil(t, got.TLSConfig)
			}
		})
	}
}

func TestNewRedisClient(t *testing.T) {
	tests := []struct {
		name      string
		addresses []string
		wantErr   bool
	}{
		{
			name:      "empty addresses",
			addresses: []string{},
			wantErr:   true,
		},
		{
			name:      "single address",
			addresses: []string{"localhost:6379"},
			wantErr:   false,
		},
		{
			name:      "multiple addresses",
			addresses: []string{"localhost:6379", "localhost:6380"},
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisClient(tt.addresses, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, client)
			assert.NotNil(t, client.Client())
		})
	}
}

func TestRedisClientRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient([]string{mr.Addr()}, false)
	if err != nil {
		t.Fatalf("Failed to create Redis client: %v", err)
	}

	ctx := context.Background()
	key := "resolve:lst_1"
	value := "loc_1"

	err = client.Client().Set(ctx, key, value, time.Minute).Err()
	assert.NoError(t, err)

	got, err := client.Client().Get(ctx, key).Result()
	assert.NoError(t, err)
	assert.Equal(t, value, got)

	err = client.Client().Del(ctx, key).Err()
	assert.NoError(t, err)

	_, err = client.Client().Get(ctx, key).Result()
	assert.Equal(t, redis.Nil, err)
}
