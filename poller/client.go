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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/tradepost-hq/tradepost/model"
)

// Client fetches change batches from a Tradepost server.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

const defaultFetchTimeout = 30 * time.Second

// NewClient creates a feed client for the server at baseURL. secretKey may be
// empty when the server runs without auth. A non-positive timeout falls back
// to the default.
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type changesResponse struct {
	Success bool                             `json:"success"`
	Data    map[string][]*model.ChangeRecord `json:"data"`
	Error   string                           `json:"error"`
}

// FetchChanges asks the server for everything that changed after the given
// watermarks. Entities the server omitted from the response are missing from
// the returned map, which callers treat as "retry later with the same
// watermark".
func (c *Client) FetchChanges(ctx context.Context, watermarks map[string]time.Time) (map[string][]*model.ChangeRecord, error) {
	body := make(map[string]string, len(watermarks))
	for entity, since := range watermarks {
		if since.IsZero() {
			body[entity] = ""
			continue
		}
		body[entity] = since.Format(time.RFC3339Nano)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal changes request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/changes", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build changes request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secretKey != "" {
		req.Header.Set("X-Tradepost-Key", c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "changes request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("changes request returned status %d", resp.StatusCode)
	}

	var decoded changesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode changes response")
	}
	if !decoded.Success {
		return nil, errors.Errorf("server rejected changes request: %s", decoded.Error)
	}
	return decoded.Data, nil
}
