package api

import (
	"context"
	"net/http"

	"github.com/pablosocial/pablo/internal/airtable"
	"github.com/pablosocial/pablo/internal/archive"
	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/notion"
	"github.com/pablosocial/pablo/internal/oauth"
	"github.com/pablosocial/pablo/internal/pkg/httputil"
	"github.com/pablosocial/pablo/internal/service/apikey"
	"github.com/pablosocial/pablo/internal/service/build"
	"github.com/pablosocial/pablo/internal/service/connection"
)

// airtableAPI is the slice of the Airtable client the webhook path uses.
type airtableAPI interface {
	Record(ctx context.Context, baseID, tableID, recordID string) (map[string]interface{}, error)
}

// notionAPI is the slice of the Notion client the webhook path uses.
type notionAPI interface {
	Page(ctx context.Context, pageID string) (map[string]interface{}, error)
	UpdateImportStatus(ctx context.Context, pageID string, status domain.ImportStatus) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	builds      *build.Service
	connections *connection.Service
	keys        *apikey.Service
	providers   map[string]oauth.Provider
	states      *oauth.StateStore
	archiver    archive.Store

	// Client factories, replaceable in tests.
	newAirtableClient func(token string) airtableAPI
	newNotionClient   func(token string) notionAPI
}

// NewHandlers creates the handler set.
func NewHandlers(
	builds *build.Service,
	connections *connection.Service,
	keys *apikey.Service,
	providers map[string]oauth.Provider,
	states *oauth.StateStore,
	archiver archive.Store,
) *Handlers {
	if archiver == nil {
		archiver = archive.Noop{}
	}
	return &Handlers{
		builds:      builds,
		connections: connections,
		keys:        keys,
		providers:   providers,
		states:      states,
		archiver:    archiver,
		newAirtableClient: func(token string) airtableAPI {
			return airtable.NewClient(token)
		},
		newNotionClient: func(token string) notionAPI {
			return notion.NewClient(token)
		},
	}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}
