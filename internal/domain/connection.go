package domain

import "time"

// Service names for third-party connections.
const (
	ServiceNotion   = "notion"
	ServiceAirtable = "airtable"
	ServiceFacebook = "facebook"
)

// ServiceCredential holds the OAuth tokens a user authorized for one
// third-party service. A user has at most one credential per service.
type ServiceCredential struct {
	UserID             string    `json:"user_id" db:"user_id"`
	ServiceName        string    `json:"service_name" db:"service_name"`
	AccessToken        string    `json:"access_token" db:"access_token"`
	RefreshToken       string    `json:"refresh_token,omitempty" db:"refresh_token"`
	AccessTokenExpires time.Time `json:"access_token_expires" db:"access_token_expires"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// Connected reports whether the credential carries a usable token.
// Disconnected services keep their row with an emptied token.
func (c *ServiceCredential) Connected() bool {
	return c.AccessToken != ""
}
