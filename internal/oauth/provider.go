// Package oauth implements the authorization flows for linking external
// services. Each provider produces an authorization URL and exchanges the
// callback code for tokens; the Redis-backed StateStore carries the flow
// state between the two requests.
package oauth

import (
	"context"
	"time"
)

// Token is the provider-independent result of a completed code exchange.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Provider is one OAuth2 integration. AuthURL returns the URL to redirect
// the user to, plus the PKCE verifier when the provider requires one
// (empty otherwise); the verifier must be presented again at Exchange.
type Provider interface {
	Name() string
	AuthURL(state string) (url, verifier string)
	Exchange(ctx context.Context, code, verifier string) (*Token, error)
}
