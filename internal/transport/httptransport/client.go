// Package httptransport implements syncengine.Transport over net/http,
// encoding and decoding the push/pull envelopes from internal/protocol as
// JSON against a remote collaborator's REST endpoints.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clinisync/core/internal/protocol"
)

// Client is a syncengine.Transport that talks to a remote collaborator at
// BaseURL over plain net/http. No example repo in the pack wires an HTTP
// client library (resty, req, etc.) for a three-endpoint JSON exchange this
// small, so net/http is used directly here.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New builds a Client against baseURL with a sane default timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Push posts req to POST {BaseURL}/sync/push and decodes a PushResponse.
func (c *Client) Push(ctx context.Context, req protocol.PushRequest) (protocol.PushResponse, error) {
	var resp protocol.PushResponse
	if err := c.call(ctx, http.MethodPost, "/sync/push", req, &resp); err != nil {
		return protocol.PushResponse{}, err
	}
	return resp, nil
}

// Pull posts req to POST {BaseURL}/sync/pull and decodes a PullResponse.
func (c *Client) Pull(ctx context.Context, req protocol.PullRequest) (protocol.PullResponse, error) {
	var resp protocol.PullResponse
	if err := c.call(ctx, http.MethodPost, "/sync/pull", req, &resp); err != nil {
		return protocol.PullResponse{}, err
	}
	return resp, nil
}

// FullSync posts req to POST {BaseURL}/sync/full and decodes a
// PullResponse holding every change the collaborator has for req's
// entity types, for a brand-new device's initial bootstrap.
func (c *Client) FullSync(ctx context.Context, req protocol.FullSyncRequest) (protocol.PullResponse, error) {
	var resp protocol.PullResponse
	if err := c.call(ctx, http.MethodPost, "/sync/full", req, &resp); err != nil {
		return protocol.PullResponse{}, err
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httptransport: encode %s: %w", path, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("httptransport: build request %s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("httptransport: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("httptransport: %s: server returned %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("httptransport: decode %s response: %w", path, err)
	}
	return nil
}
