package domain

import "time"

// APIKey authenticates webhook and API calls and resolves them to a user.
type APIKey struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	Key        string     `json:"key" db:"key"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
}

// Redacted returns a copy safe for listing responses: only a key prefix is
// exposed once the key has been issued.
func (k APIKey) Redacted() APIKey {
	if len(k.Key) > 8 {
		k.Key = k.Key[:8] + "..."
	}
	return k
}
