package api

import (
	"bytes"
	"context"
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

func notionWebhookBody() map[string]interface{} {
	rt := func(s string) map[string]interface{} {
		return map[string]interface{}{
			"type": "rich_text",
			"rich_text": []interface{}{
				map[string]interface{}{"text": map[string]interface{}{"content": s}},
			},
		}
	}
	return map[string]interface{}{
		"data": map[string]interface{}{
			"id":     "page-1",
			"parent": map[string]interface{}{"database_id": "db-1"},
			"properties": map[string]interface{}{
				"ad_name":       rt("ad-one"),
				"ad_headline":   rt("Headline"),
				"ad_body":       rt("Body"),
				"ad_link":       map[string]interface{}{"type": "url", "url": "https://example.com"},
				"ad_media_type": map[string]interface{}{"type": "select", "select": map[string]interface{}{"name": "static"}},
				"ad_cta_label":  map[string]interface{}{"type": "select", "select": map[string]interface{}{"name": "LEARN_MORE"}},
				"ad_asset": map[string]interface{}{
					"type": "files",
					"files": []interface{}{map[string]interface{}{
						"type":     "external",
						"external": map[string]interface{}{"url": "https://cdn.example.com/a.jpg"},
					}},
				},
				"destination_ad_account_id":  rt("acct"),
				"destination_adset_id":       rt("adset"),
				"destination_template_ad_id": rt("tmpl"),
			},
		},
	}
}

func postJSON(t *testing.T, router http.Handler, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNotionWebhook(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/notion", env.apiKey, notionWebhookBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Status  string `json:"status"`
		BuildID string `json:"build_id"`
		AdName  string `json:"ad_name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "ad-one", result.AdName)
	assert.NotEmpty(t, result.BuildID)

	require.Len(t, env.builds.created, 1)
	assert.Equal(t, "u1", env.builds.created[0].UserID)
	assert.Equal(t, domain.SourceNotion, env.builds.created[0].SourceType)
}

func TestNotionWebhookRequiresKey(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/notion", "", notionWebhookBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, env.router, "/webhooks/notion", "wrong-key", notionWebhookBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, env.builds.created)
}

func TestNotionWebhookKeyViaQueryParam(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/notion?api_key="+env.apiKey, "", notionWebhookBody())
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestNotionWebhookVerificationToken(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/notion", env.apiKey, map[string]string{
		"verification_token": "vt-123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vt-123")
	assert.Empty(t, env.builds.created)
}

func TestNotionWebhookValidationError(t *testing.T) {
	env := newTestEnv(t)

	body := notionWebhookBody()
	props := body["data"].(map[string]interface{})["properties"].(map[string]interface{})
	delete(props, "ad_asset")

	rec := postJSON(t, env.router, "/webhooks/notion", env.apiKey, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Field  string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "ad_asset", resp.Field)
	assert.Empty(t, env.builds.created)
}

func TestNotionWebhookFieldMap(t *testing.T) {
	env := newTestEnv(t)

	body := notionWebhookBody()
	props := body["data"].(map[string]interface{})["properties"].(map[string]interface{})
	props["Headline Text"] = props["ad_headline"]
	delete(props, "ad_headline")

	fieldMap := url.QueryEscape(`{"Headline Text":"ad_headline"}`)
	rec := postJSON(t, env.router, "/webhooks/notion?field_map="+fieldMap, env.apiKey, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, env.builds.created, 1)
	assert.Equal(t, "Headline", env.builds.created[0].AdHeadline)
}

func TestNotionWebhookFetchesBarePage(t *testing.T) {
	env := newTestEnv(t)

	page := notionWebhookBody()["data"].(map[string]interface{})
	stub := &stubNotionAPI{page: page}
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

	rec := postJSON(t, env.router, "/webhooks/notion", env.apiKey,
		map[string]string{"id": "page-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "page-1", stub.gotPageID)
	require.Len(t, env.builds.created, 1)
	assert.Equal(t, "ad-one", env.builds.created[0].AdName)
}

func TestNotionWebhookBarePageWithoutConnection(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/notion", env.apiKey,
		map[string]string{"id": "page-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not connected")
}

func TestNotionWebhookProbe(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/notion", nil)
	req.Header.Set("X-API-Key", env.apiKey)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func airtableWebhookBody() map[string]interface{} {
	return map[string]interface{}{
		"id": "recXYZ",
		"fields": map[string]interface{}{
			"ad_name":       "ad-two",
			"ad_headline":   "Headline",
			"ad_body":       "Body",
			"ad_link":       "https://example.com",
			"ad_media_type": "video",
			"ad_cta_label":  "SHOP_NOW",
			"ad_asset": []interface{}{map[string]interface{}{
				"url":      "https://dl.airtable.com/v.mp4",
				"filename": "v.mp4",
			}},
			"destination_ad_account_id":  "acct",
			"destination_adset_id":       "adset",
			"destination_template_ad_id": "tmpl",
		},
	}
}

func TestAirtableWebhook(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/airtable?source_table_id=appA_tblB", env.apiKey, airtableWebhookBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, env.builds.created, 1)
	assert.Equal(t, "appA_tblB", env.builds.created[0].SourceTableID)
	assert.Equal(t, domain.SourceAirtable, env.builds.created[0].SourceType)
}

func TestAirtableWebhookMissingTableID(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/airtable", env.apiKey, airtableWebhookBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, env.router, "/webhooks/airtable?source_table_id=justonepart", env.apiKey, airtableWebhookBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, env.router, "/webhooks/airtable?source_table_id=a_b_c", env.apiKey, airtableWebhookBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.builds.created)
}

type stubAirtableAPI struct {
	record map[string]interface{}

	gotBase, gotTable, gotRecord string
}

func (s *stubAirtableAPI) Record(_ context.Context, baseID, tableID, recordID string) (map[string]interface{}, error) {
	s.gotBase, s.gotTable, s.gotRecord = baseID, tableID, recordID
	return s.record, nil
}

func TestAirtableWebhookFetchesBareRecord(t *testing.T) {
	env := newTestEnv(t)

	stub := &stubAirtableAPI{record: airtableWebhookBody()}
	env.handlers.newAirtableClient = func(token string) airtableAPI {
		assert.Equal(t, "at-token", token)
		return stub
	}
	env.creds.creds[credKey("u1", domain.ServiceAirtable)] = &domain.ServiceCredential{
		UserID:             "u1",
		ServiceName:        domain.ServiceAirtable,
		AccessToken:        "at-token",
		AccessTokenExpires: time.Now().Add(time.Hour),
	}

	rec := postJSON(t, env.router, "/webhooks/airtable?source_table_id=appA_tblB", env.apiKey,
		map[string]string{"recordId": "recXYZ"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "appA", stub.gotBase)
	assert.Equal(t, "tblB", stub.gotTable)
	assert.Equal(t, "recXYZ", stub.gotRecord)
	require.Len(t, env.builds.created, 1)
}

func TestAirtableWebhookGetMode(t *testing.T) {
	env := newTestEnv(t)

	stub := &stubAirtableAPI{record: airtableWebhookBody()}
	env.handlers.newAirtableClient = func(token string) airtableAPI {
		return stub
	}
	env.creds.creds[credKey("u1", domain.ServiceAirtable)] = &domain.ServiceCredential{
		UserID:             "u1",
		ServiceName:        domain.ServiceAirtable,
		AccessToken:        "at-token",
		AccessTokenExpires: time.Now().Add(time.Hour),
	}

	rec := getWithKey(t, env.router, "/webhooks/airtable?source_table_id=appA_tblB&record_id=recXYZ", env.apiKey)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "recXYZ", stub.gotRecord)
	require.Len(t, env.builds.created, 1)
	assert.Equal(t, "ad-two", env.builds.created[0].AdName)
}

func TestAirtableWebhookGetModeRequiresRecordID(t *testing.T) {
	env := newTestEnv(t)

	rec := getWithKey(t, env.router, "/webhooks/airtable?source_table_id=appA_tblB", env.apiKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "record_id")
}

func TestAirtableWebhookBareRecordWithoutConnection(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env.router, "/webhooks/airtable?source_table_id=appA_tblB", env.apiKey,
		map[string]string{"recordId": "recXYZ"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "not connected")
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
