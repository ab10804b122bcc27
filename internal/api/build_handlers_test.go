package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablosocial/pablo/internal/domain"
)

type stubNotionAPI struct {
	page      map[string]interface{}
	gotPageID string
	gotStatus domain.ImportStatus
}

func (s *stubNotionAPI) Page(_ context.Context, pageID string) (map[string]interface{}, error) {
	s.gotPageID = pageID
	return s.page, nil
}

func (s *stubNotionAPI) UpdateImportStatus(_ context.Context, pageID string, status domain.ImportStatus) error {
	s.gotPageID = pageID
	s.gotStatus = status
	return nil
}

func createBuild(t *testing.T, env *testEnv) string {
	t.Helper()
	rec := postJSON(t, env.router, "/webhooks/notion", env.apiKey, notionWebhookBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		BuildID string `json:"build_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result.BuildID
}

func TestGetBuild(t *testing.T) {
	env := newTestEnv(t)
	buildID := createBuild(t, env)

	rec := getWithKey(t, env.router, "/builds/"+buildID, env.apiKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ad domain.AdData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ad))
	assert.Equal(t, buildID, ad.BuildID)
	assert.Equal(t, "ad-one", ad.AdName)
}

func TestGetBuildScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	buildID := createBuild(t, env)

	// A different user's key cannot see the build.
	rec := postJSON(t, env.router, "/api/keys/", "", map[string]string{"user_id": "u2"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var otherKey struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &otherKey))

	rec = getWithKey(t, env.router, "/builds/"+buildID, otherKey.Key)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBuildMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := getWithKey(t, env.router, "/builds/no-such-build", env.apiKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBuildStatus(t *testing.T) {
	env := newTestEnv(t)
	buildID := createBuild(t, env)

	stub := &stubNotionAPI{}
	env.handlers.newNotionClient = func(token string) notionAPI {
		assert.Equal(t, "notion-token", token)
		return stub
	}
	env.creds.creds[credKey("u1", domain.ServiceNotion)] = &domain.ServiceCredential{
		UserID:             "u1",
		ServiceName:        domain.ServiceNotion,
		AccessToken:        "notion-token",
		AccessTokenExpires: time.Now().Add(time.Hour),
	}

	rec := postJSON(t, env.router, "/builds/"+buildID+"/status", env.apiKey,
		map[string]string{"status": "complete"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, env.builds.created, 1)
	assert.Equal(t, domain.ImportComplete, env.builds.created[0].AdImportStatus)

	// The status change is mirrored to the source page.
	assert.Equal(t, "page-1", stub.gotPageID)
	assert.Equal(t, domain.ImportComplete, stub.gotStatus)
}

func TestUpdateBuildStatusRejectsUnknown(t *testing.T) {
	env := newTestEnv(t)
	buildID := createBuild(t, env)

	rec := postJSON(t, env.router, "/builds/"+buildID+"/status", env.apiKey,
		map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ad_import_status")
}
