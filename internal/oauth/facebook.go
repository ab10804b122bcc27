package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/httpretry"
)

// Long-lived Facebook user tokens last about 60 days; used when the
// exchange response omits expires_in.
const facebookDefaultLifetime = 5184000 * time.Second

// FacebookProvider implements the Facebook Login flow. After the standard
// code exchange it upgrades the short-lived token to a long-lived one via
// the fb_exchange_token grant.
type FacebookProvider struct {
	config     *oauth2.Config
	graphURL   string
	httpClient httpretry.HTTPDoer
}

// NewFacebookProvider creates a Facebook OAuth provider for the given
// Graph API version, e.g. "v21.0".
func NewFacebookProvider(clientID, clientSecret, redirectURI, apiVersion string) *FacebookProvider {
	return &FacebookProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"ads_management", "business_management"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  fmt.Sprintf("https://www.facebook.com/%s/dialog/oauth", apiVersion),
				TokenURL: fmt.Sprintf("https://graph.facebook.com/%s/oauth/access_token", apiVersion),
			},
		},
		graphURL:   fmt.Sprintf("https://graph.facebook.com/%s", apiVersion),
		httpClient: httpretry.New(nil, -1),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (p *FacebookProvider) SetHTTPClient(client httpretry.HTTPDoer) {
	p.httpClient = client
}

// SetGraphURL overrides the Graph API base URL (useful for testing).
func (p *FacebookProvider) SetGraphURL(graphURL string) {
	p.graphURL = graphURL
}

func (p *FacebookProvider) Name() string { return domain.ServiceFacebook }

func (p *FacebookProvider) AuthURL(state string) (string, string) {
	return p.config.AuthCodeURL(state), ""
}

func (p *FacebookProvider) Exchange(ctx context.Context, code, _ string) (*Token, error) {
	shortLived, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("facebook token exchange: %w", err)
	}
	return p.exchangeLongLived(ctx, shortLived.AccessToken)
}

// exchangeLongLived upgrades a short-lived user token via the
// fb_exchange_token grant.
func (p *FacebookProvider) exchangeLongLived(ctx context.Context, shortToken string) (*Token, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", p.config.ClientID)
	q.Set("client_secret", p.config.ClientSecret)
	q.Set("fb_exchange_token", shortToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphURL+"/oauth/access_token?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create exchange request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("long-lived exchange failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read exchange response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("long-lived exchange failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("long-lived exchange returned no access token")
	}

	lifetime := facebookDefaultLifetime
	if result.ExpiresIn > 0 {
		lifetime = time.Duration(result.ExpiresIn) * time.Second
	}
	return &Token{
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(lifetime).UTC(),
	}, nil
}
