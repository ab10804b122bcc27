package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pablosocial/pablo/internal/oauth"
	"github.com/pablosocial/pablo/internal/pkg/httputil"
	"github.com/pablosocial/pablo/internal/pkg/logger"
)

// Authorize starts an OAuth flow for one service and returns the URL to
// redirect the user to.
func (h *Handlers) Authorize(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	service := chi.URLParam(r, "service")

	provider, ok := h.providers[service]
	if !ok {
		httputil.NotFound(w, "unknown service: "+service)
		return
	}

	stateID := oauth.NewStateID()
	authURL, verifier := provider.AuthURL(stateID)

	err := h.states.Save(r.Context(), stateID, oauth.State{
		UserID:   userID,
		Service:  service,
		Verifier: verifier,
	})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]string{"authorization_url": authURL})
}

// OAuthCallback completes an OAuth flow. It is unauthenticated by nature;
// the single-use state parameter binds the callback to the user who
// started the flow.
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")

	if errCode := r.URL.Query().Get("error"); errCode != "" {
		httputil.BadRequest(w, "authorization denied: "+errCode)
		return
	}

	code := r.URL.Query().Get("code")
	stateID := r.URL.Query().Get("state")
	if code == "" || stateID == "" {
		httputil.BadRequest(w, "code and state query parameters are required")
		return
	}

	state, err := h.states.Take(r.Context(), stateID)
	if err != nil {
		if errors.Is(err, oauth.ErrStateNotFound) {
			httputil.BadRequest(w, "invalid or expired state")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	if state.Service != service {
		httputil.BadRequest(w, "state does not match service")
		return
	}

	provider, ok := h.providers[service]
	if !ok {
		httputil.NotFound(w, "unknown service: "+service)
		return
	}

	token, err := provider.Exchange(r.Context(), code, state.Verifier)
	if err != nil {
		logger.Error("token exchange failed", "service", service, "error", err.Error())
		httputil.InternalError(w, err)
		return
	}

	if err := h.connections.Store(r.Context(), state.UserID, service, token.AccessToken, token.RefreshToken, token.ExpiresAt); err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]string{
		"status":  "connected",
		"service": service,
	})
}

// ListConnections returns the services the caller has linked.
func (h *Handlers) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	creds, err := h.connections.Connections(r.Context(), userID)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	type conn struct {
		Service   string `json:"service"`
		Connected bool   `json:"connected"`
		ExpiresAt string `json:"expires_at"`
	}
	out := make([]conn, 0, len(creds))
	for _, c := range creds {
		out = append(out, conn{
			Service:   c.ServiceName,
			Connected: true,
			ExpiresAt: c.AccessTokenExpires.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	httputil.OK(w, map[string]interface{}{"connections": out})
}

// Disconnect unlinks one service for the caller.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	service := chi.URLParam(r, "service")

	if err := h.connections.Disconnect(r.Context(), userID, service); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.NoContent(w)
}
