package oauth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/pablosocial/pablo/internal/domain"
)

// AirtableProvider implements the Airtable OAuth flow. Airtable requires
// PKCE, so AuthURL returns a verifier the caller must persist with the
// flow state and present again at Exchange.
type AirtableProvider struct {
	config *oauth2.Config
}

// NewAirtableProvider creates an Airtable OAuth provider.
func NewAirtableProvider(clientID, clientSecret, redirectURI string) *AirtableProvider {
	return &AirtableProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"data.records:read", "schema.bases:read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://airtable.com/oauth2/v1/authorize",
				TokenURL: "https://airtable.com/oauth2/v1/token",
			},
		},
	}
}

func (p *AirtableProvider) Name() string { return domain.ServiceAirtable }

func (p *AirtableProvider) AuthURL(state string) (string, string) {
	verifier := oauth2.GenerateVerifier()
	url := p.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return url, verifier
}

func (p *AirtableProvider) Exchange(ctx context.Context, code, verifier string) (*Token, error) {
	tok, err := p.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("airtable token exchange: %w", err)
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		// Airtable access tokens last 60 minutes when expires_in is absent.
		expiry = time.Now().Add(time.Hour)
	}
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiry.UTC(),
	}, nil
}
