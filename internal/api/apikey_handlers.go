package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pablosocial/pablo/internal/pkg/httputil"
)

// CreateKey issues a new API key. The response is the only place the full
// key value appears; listings redact it.
func (h *Handlers) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		httputil.BadRequest(w, "user_id is required")
		return
	}

	key, err := h.keys.Generate(r.Context(), req.UserID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, key)
}

// ListKeys returns the caller's keys with values redacted.
func (h *Handlers) ListKeys(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	keys, err := h.keys.List(r.Context(), userID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"keys": keys})
}

// DeleteKey revokes one of the caller's keys.
func (h *Handlers) DeleteKey(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.keys.Delete(r.Context(), userID, id); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}
