// Package notion is a minimal client for the Notion REST API covering the
// endpoints the ingestion path needs: fetching a page and updating the
// import-status select property on it.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/httpretry"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// Client calls the Notion API on behalf of one user.
type Client struct {
	baseURL    string
	token      string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a Notion client authenticated with the given access
// token. Calls are single-attempt: a webhook delivery is the retry unit,
// so transient failures surface to the caller instead of being retried.
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

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("notion API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// Page fetches a page object by id. The result is the raw page JSON, shaped
// like the "data" envelope of a Notion webhook payload.
func (c *Client) Page(ctx context.Context, pageID string) (map[string]interface{}, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/pages/"+pageID, nil)
	if err != nil {
		return nil, err
	}
	var page map[string]interface{}
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	return page, nil
}

// statusLabel maps an import status to the select option shown in the
// user's Notion database.
func statusLabel(status domain.ImportStatus) string {
	switch status {
	case domain.ImportBuilding:
		return "In Progress"
	case domain.ImportComplete:
		return "Complete"
	case domain.ImportError:
		return "Error"
	default:
		return "Draft"
	}
}

// UpdateImportStatus sets the page's ad_import_status select property so
// the user sees build progress in their own database.
func (c *Client) UpdateImportStatus(ctx context.Context, pageID string, status domain.ImportStatus) error {
	body := map[string]interface{}{
		"properties": map[string]interface{}{
			"ad_import_status": map[string]interface{}{
				"select": map[string]interface{}{"name": statusLabel(status)},
			},
		},
	}
	if _, err := c.doRequest(ctx, http.MethodPatch, "/pages/"+pageID, body); err != nil {
		return fmt.Errorf("update import status: %w", err)
	}
	return nil
}
