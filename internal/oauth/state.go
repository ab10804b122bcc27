package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "oauth:state:"
	stateTTL       = 5 * time.Minute
)

// ErrStateNotFound is returned when a callback presents an unknown or
// already-consumed state parameter.
var ErrStateNotFound = errors.New("oauth state not found or expired")

// State is the flow context stored between the authorize redirect and the
// provider callback.
type State struct {
	UserID   string `json:"user_id"`
	Service  string `json:"service"`
	Verifier string `json:"verifier,omitempty"`
}

// StateStore keeps short-lived, single-use OAuth flow state in Redis.
type StateStore struct {
	rdb *redis.Client
}

// NewStateStore creates a Redis-backed state store.
func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb}
}

// NewStateID returns a fresh random id for use as the state parameter.
// The id is minted before Save so providers can bind it into the
// authorization URL while the PKCE verifier is generated.
func NewStateID() string {
	return uuid.New().String()
}

// Save stores the flow state under the given id for one flow's lifetime.
func (s *StateStore) Save(ctx context.Context, id string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.rdb.Set(ctx, stateKeyPrefix+id, payload, stateTTL).Err(); err != nil {
		return fmt.Errorf("store state: %w", err)
	}
	return nil
}

// Take retrieves and deletes the flow state in one step. A state id can be
// consumed exactly once; replayed callbacks get ErrStateNotFound.
func (s *StateStore) Take(ctx context.Context, id string) (*State, error) {
	payload, err := s.rdb.GetDel(ctx, stateKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}
