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

package poller

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

func TestFetchChanges(t *testing.T) {
	client := NewClient("http://tradepost.test", "sk_test", 0)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://tradepost.test/changes",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "sk_test", req.Header.Get("X-Tradepost-Key"))

			return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
				"success": true,
				"data": map[string]interface{}{
					"offers": []map[string]interface{}{
						{
							"id":          "off_1",
							"status":      "pending",
							"change_type": "created",
							"created_at":  "2026-03-01T10:00:00Z",
							"updated_at":  "2026-03-01T10:00:00Z",
						},
					},
				},
			})
		})

	changes, err := client.FetchChanges(context.Background(), map[string]time.Time{
		"offers": time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
	assert.Len(t, changes["offers"], 1)
	assert.Equal(t, "off_1", changes["offers"][0].EntityID)
}

func TestFetchChanges_ServerError(t *testing.T) {
	client := NewClient("http://tradepost.test", "", 0)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://tradepost.test/changes",
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"error":"boom"}`))

	_, err := client.FetchChanges(context.Background(), map[string]time.Time{"offers": {}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFetchChanges_RejectedRequest(t *testing.T) {
	client := NewClient("http://tradepost.test", "", 0)
	httpmock.ActivateNonDefault(client.httpClient)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "http://tradepost.test/changes",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]interface{}{
			"success": false,
			"error":   "malformed watermark",
		}))

	_, err := client.FetchChanges(context.Background(), map[string]time.Time{"offers": {}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "malformed watermark")
}
