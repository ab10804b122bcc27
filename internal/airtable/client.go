// Package airtable is a minimal client for the Airtable REST API covering
// the single endpoint the ingestion path needs: fetching one record.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pablosocial/pablo/internal/pkg/httpretry"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client calls the Airtable API on behalf of one user.
type Client struct {
	baseURL    string
	token      string
	httpClient httpretry.HTTPDoer
}

// NewClient creates an Airtable client authenticated with the given access
// token. Calls are single-attempt; the webhook delivery is the retry unit.
func NewClient(token string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: httpretry.New(nil, 0),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SetBaseURL overrides the API base URL (useful for testing).
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Record fetches one record from a table. The result is the raw record
// JSON: {"id": ..., "createdTime": ..., "fields": {...}}.
func (c *Client) Record(ctx context.Context, baseID, tableID, recordID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, baseID, tableID, recordID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("airtable API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var record map[string]interface{}
	if err := json.Unmarshal(respBody, &record); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return record, nil
}
