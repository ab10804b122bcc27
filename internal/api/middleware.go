package api

import (
	"context"
	"net/http"

	"github.com/pablosocial/pablo/internal/pkg/httputil"
)

type contextKey string

const userIDKey contextKey = "user_id"

// apiKeyAuth resolves the X-API-Key header (or api_key query parameter,
// for services that cannot set webhook headers) to a user and stores the
// user id on the request context.
func (h *Handlers) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}

		userID, err := h.keys.Validate(r.Context(), key)
		if err != nil {
			httputil.Unauthorized(w, "invalid or missing API key")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFrom returns the authenticated user id set by apiKeyAuth.
func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
