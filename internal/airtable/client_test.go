package airtable

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/appBase/tblTable/recXYZ", r.URL.Path)
		assert.Equal(t, "Bearer pat-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"recXYZ","createdTime":"2026-01-05T10:00:00.000Z","fields":{"ad_name":"ad-one"}}`))
	}))
	defer srv.Close()

	client := NewClient("pat-token")
	client.SetBaseURL(srv.URL)

	record, err := client.Record(context.Background(), "appBase", "tblTable", "recXYZ")
	require.NoError(t, err)
	assert.Equal(t, "recXYZ", record["id"])

	fields := record["fields"].(map[string]interface{})
	assert.Equal(t, "ad-one", fields["ad_name"])
}

func TestRecordAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"type":"INVALID_PERMISSIONS"}}`))
	}))
	defer srv.Close()

	client := NewClient("bad-token")
	client.SetBaseURL(srv.URL)

	_, err := client.Record(context.Background(), "appBase", "tblTable", "recXYZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
