package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablosocial/pablo/internal/domain"
)

func getWithKey(t *testing.T, router http.Handler, path, apiKey string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthorizeAndCallback(t *testing.T) {
	env := newTestEnv(t)

	// Start the flow.
	rec := getWithKey(t, env.router, "/connections/notion/authorize", env.apiKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var authResp struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authResp))

	u, err := url.Parse(authResp.AuthorizationURL)
	require.NoError(t, err)
	stateID := u.Query().Get("state")
	require.NotEmpty(t, stateID)

	// Complete it via the provider callback.
	rec = getWithKey(t, env.router, "/connections/notion/callback?code=code-1&state="+stateID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "code-1", env.provider.gotCode)

	// The credential is stored for the initiating user.
	cred, ok := env.creds.creds[credKey("u1", domain.ServiceNotion)]
	require.True(t, ok)
	assert.Equal(t, "fresh-token", cred.AccessToken)
}

func TestCallbackReplayRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := getWithKey(t, env.router, "/connections/notion/authorize", env.apiKey)
	require.Equal(t, http.StatusOK, rec.Code)

	var authResp struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &authResp))
	u, _ := url.Parse(authResp.AuthorizationURL)
	stateID := u.Query().Get("state")

	rec = getWithKey(t, env.router, "/connections/notion/callback?code=code-1&state="+stateID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// A second use of the same state is rejected.
	rec = getWithKey(t, env.router, "/connections/notion/callback?code=code-2&state="+stateID, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackUnknownState(t *testing.T) {
	env := newTestEnv(t)

	rec := getWithKey(t, env.router, "/connections/notion/callback?code=code-1&state=forged", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackProviderDenied(t *testing.T) {
	env := newTestEnv(t)

	rec := getWithKey(t, env.router, "/connections/notion/callback?error=access_denied", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "access_denied")
}

func TestAuthorizeUnknownService(t *testing.T) {
	env := newTestEnv(t)

	rec := getWithKey(t, env.router, "/connections/sheets/authorize", env.apiKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListConnections(t *testing.T) {
	env := newTestEnv(t)

	env.creds.creds[credKey("u1", domain.ServiceAirtable)] = &domain.ServiceCredential{
		UserID:             "u1",
		ServiceName:        domain.ServiceAirtable,
		AccessToken:        "tok",
		AccessTokenExpires: time.Now().Add(time.Hour),
	}
	// Disconnected row keeps its entry with an emptied token.
	env.creds.creds[credKey("u1", domain.ServiceFacebook)] = &domain.ServiceCredential{
		UserID:      "u1",
		ServiceName: domain.ServiceFacebook,
	}

	rec := getWithKey(t, env.router, "/connections/", env.apiKey)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Connections []struct {
			Service string `json:"service"`
		} `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Connections, 1)
	assert.Equal(t, domain.ServiceAirtable, resp.Connections[0].Service)
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(t)

	env.creds.creds[credKey("u1", domain.ServiceNotion)] = &domain.ServiceCredential{
		UserID:      "u1",
		ServiceName: domain.ServiceNotion,
		AccessToken: "tok",
	}

	req := httptest.NewRequest(http.MethodDelete, "/connections/notion", nil)
	req.Header.Set("X-API-Key", env.apiKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := env.creds.creds[credKey("u1", domain.ServiceNotion)]
	assert.False(t, ok)
}
