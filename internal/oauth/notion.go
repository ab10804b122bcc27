package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/httpretry"
)

const (
	notionAuthURL  = "https://api.notion.com/v1/oauth/authorize"
	notionTokenURL = "https://api.notion.com/v1/oauth/token"

	// Notion access tokens do not expire; store a far-future expiry so
	// Connected() checks and listings behave uniformly across services.
	notionTokenLifetime = 365 * 24 * time.Hour
)

// NotionProvider implements the Notion OAuth flow. Notion does not follow
// the standard token endpoint encoding: the exchange is a JSON body
// authenticated with HTTP Basic, so it is done directly rather than
// through the oauth2 package.
type NotionProvider struct {
	clientID     string
	clientSecret string
	redirectURI  string
	httpClient   httpretry.HTTPDoer
}

// NewNotionProvider creates a Notion OAuth provider.
func NewNotionProvider(clientID, clientSecret, redirectURI string) *NotionProvider {
	return &NotionProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		httpClient:   httpretry.New(nil, -1),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (p *NotionProvider) SetHTTPClient(client httpretry.HTTPDoer) {
	p.httpClient = client
}

func (p *NotionProvider) Name() string { return domain.ServiceNotion }

func (p *NotionProvider) AuthURL(state string) (string, string) {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURI)
	q.Set("response_type", "code")
	q.Set("owner", "user")
	q.Set("state", state)
	return notionAuthURL + "?" + q.Encode(), ""
}

func (p *NotionProvider) Exchange(ctx context.Context, code, _ string) (*Token, error) {
	body, err := json.Marshal(map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": p.redirectURI,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notionTokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(p.clientID, p.clientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("notion token exchange failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("notion token exchange returned no access token")
	}

	return &Token{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(notionTokenLifetime).UTC(),
	}, nil
}
