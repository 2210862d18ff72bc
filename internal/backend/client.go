/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"slugline/internal/screenplay"
)

// Client is a minimal HTTP client for the publishing API, used by the CLI's
// publish and remote subcommands.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

// RequestToken asks the server for a bearer token for the given subject.
func (c *Client) RequestToken(ctx context.Context, subject string, ttl time.Duration) (string, error) {
	req := map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/token", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// ListScreenplays returns published screenplays.
func (c *Client) ListScreenplays(ctx context.Context) ([]Screenplay, error) {
	var list []Screenplay
	if err := c.doJSON(ctx, http.MethodGet, "/api/screenplays", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Publish uploads a processed element stream under the given name, replacing
// any previously published stream with the same name. It returns the server id.
func (c *Client) Publish(ctx context.Context, name string, els []screenplay.Element) (int64, error) {
	req := map[string]any{"name": name, "elements": els}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/screenplays", req, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// GetElements fetches the element stream of a published screenplay.
func (c *Client) GetElements(ctx context.Context, id int64) ([]screenplay.Element, error) {
	var els []screenplay.Element
	path := fmt.Sprintf("/api/screenplays/%d/elements", id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &els); err != nil {
		return nil, err
	}
	return els, nil
}
