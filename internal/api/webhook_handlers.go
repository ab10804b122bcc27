package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/httputil"
	"github.com/pablosocial/pablo/internal/pkg/logger"
	"github.com/pablosocial/pablo/internal/service/build"
	"github.com/pablosocial/pablo/internal/service/connection"
	"github.com/pablosocial/pablo/internal/transform"
)

// parseFieldMap reads the optional field_map query parameter: a URL-encoded
// JSON object mapping source property names to canonical field names.
func parseFieldMap(r *http.Request) (transform.FieldMap, error) {
	raw := r.URL.Query().Get("field_map")
	if raw == "" {
		return nil, nil
	}
	var fields transform.FieldMap
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// writeBuildError maps a build pipeline failure onto the HTTP surface:
// caller errors (bad payloads, missing fields, unlinked services) get a
// 4xx with detail, everything else a generic 500.
func writeBuildError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.ValidationFailed(w, verr.Field, verr.Message)
	case errors.Is(err, build.ErrUnknownSource):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, connection.ErrNotConnected):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}

// NotionWebhookProbe answers endpoint verification probes.
func (h *Handlers) NotionWebhookProbe(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// NotionWebhook ingests one Notion automation payload and creates a build.
func (h *Handlers) NotionWebhook(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.BadRequest(w, "read body: "+err.Error())
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		httputil.BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	// Notion sends a one-time verification payload when the subscription
	// is created; echo the token back instead of building.
	if token, ok := payload["verification_token"].(string); ok {
		logger.Info("notion webhook verification", "user_id", userID)
		httputil.OK(w, map[string]string{"verification_token": token})
		return
	}

	fields, err := parseFieldMap(r)
	if err != nil {
		httputil.BadRequest(w, "invalid field_map: "+err.Error())
		return
	}

	if key, err := h.archiver.SaveWebhookPayload(r.Context(), string(domain.SourceNotion), raw); err != nil {
		logger.Warn("payload archive failed", "source", "notion", "error", err.Error())
	} else if key != "" {
		logger.Debug("payload archived", "source", "notion", "key", key)
	}

	// Automations post the page object directly; normalize to the
	// webhook envelope shape.
	if _, ok := payload["data"]; !ok {
		payload = map[string]interface{}{"data": payload}
	}

	// Minimal payloads carry only the page id; re-fetch the full page.
	if data, ok := payload["data"].(map[string]interface{}); ok {
		if _, ok := data["properties"]; !ok {
			page, err := h.fetchNotionPage(r, userID, data)
			if err != nil {
				writeBuildError(w, err)
				return
			}
			payload = map[string]interface{}{"data": page}
		}
	}

	result, err := h.builds.ProcessNotion(r.Context(), payload, userID, fields)
	if err != nil {
		writeBuildError(w, err)
		return
	}

	h.reflectNotionStatus(r, userID, payload)

	httputil.OK(w, result)
}

// fetchNotionPage resolves a bare page reference to the full page object.
func (h *Handlers) fetchNotionPage(r *http.Request, userID string, data map[string]interface{}) (map[string]interface{}, error) {
	pageID, _ := data["id"].(string)
	if pageID == "" {
		pageID, _ = data["page_id"].(string)
	}
	if pageID == "" {
		return nil, domain.MissingField("source_record_id")
	}

	cred, err := h.connections.Credential(r.Context(), userID, domain.ServiceNotion)
	if err != nil {
		return nil, err
	}
	return h.newNotionClient(cred.AccessToken).Page(r.Context(), pageID)
}

// reflectNotionStatus pushes the building status back to the source page
// so the user sees progress in their database. Best effort: the build is
// already persisted.
func (h *Handlers) reflectNotionStatus(r *http.Request, userID string, payload map[string]interface{}) {
	data, _ := payload["data"].(map[string]interface{})
	pageID, _ := data["id"].(string)
	if pageID == "" {
		return
	}
	h.pushNotionStatus(r, userID, pageID, domain.ImportBuilding)
}

// AirtableWebhook ingests one Airtable automation payload and creates a
// build. The source_table_id query parameter carries "<baseID>_<tableID>".
// Payloads without a fields object are re-fetched from the Airtable API
// using the caller's stored credential.
func (h *Handlers) AirtableWebhook(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	sourceTableID := r.URL.Query().Get("source_table_id")
	if sourceTableID == "" {
		httputil.BadRequest(w, "source_table_id query parameter is required")
		return
	}
	parts := strings.Split(sourceTableID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		httputil.BadRequest(w, "source_table_id must be of the form <baseID>_<tableID>")
		return
	}
	baseID, tableID := parts[0], parts[1]

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.BadRequest(w, "read body: "+err.Error())
		return
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		httputil.BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	fields, err := parseFieldMap(r)
	if err != nil {
		httputil.BadRequest(w, "invalid field_map: "+err.Error())
		return
	}

	if key, err := h.archiver.SaveWebhookPayload(r.Context(), string(domain.SourceAirtable), raw); err != nil {
		logger.Warn("payload archive failed", "source", "airtable", "error", err.Error())
	} else if key != "" {
		logger.Debug("payload archived", "source", "airtable", "key", key)
	}

	if _, ok := payload["fields"].(map[string]interface{}); !ok {
		payload, err = h.fetchAirtableRecord(r, userID, baseID, tableID, payload)
		if err != nil {
			writeBuildError(w, err)
			return
		}
	}

	result, err := h.builds.ProcessAirtable(r.Context(), payload, userID, baseID, tableID, fields)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	httputil.OK(w, result)
}

// AirtableWebhookFetch handles GET-mode ingestion: the automation passes
// only identifiers and the record is fetched through the caller's stored
// Airtable credential.
func (h *Handlers) AirtableWebhookFetch(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	sourceTableID := r.URL.Query().Get("source_table_id")
	if sourceTableID == "" {
		httputil.BadRequest(w, "source_table_id query parameter is required")
		return
	}
	parts := strings.Split(sourceTableID, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		httputil.BadRequest(w, "source_table_id must be of the form <baseID>_<tableID>")
		return
	}
	baseID, tableID := parts[0], parts[1]

	recordID := r.URL.Query().Get("record_id")
	if recordID == "" {
		httputil.BadRequest(w, "record_id query parameter is required")
		return
	}

	fields, err := parseFieldMap(r)
	if err != nil {
		httputil.BadRequest(w, "invalid field_map: "+err.Error())
		return
	}

	payload, err := h.fetchAirtableRecord(r, userID, baseID, tableID, map[string]interface{}{"id": recordID})
	if err != nil {
		writeBuildError(w, err)
		return
	}

	result, err := h.builds.ProcessAirtable(r.Context(), payload, userID, baseID, tableID, fields)
	if err != nil {
		writeBuildError(w, err)
		return
	}
	httputil.OK(w, result)
}

// fetchAirtableRecord resolves a bare record reference to the full record.
func (h *Handlers) fetchAirtableRecord(r *http.Request, userID, baseID, tableID string, payload map[string]interface{}) (map[string]interface{}, error) {
	recordID, _ := payload["id"].(string)
	if recordID == "" {
		recordID, _ = payload["recordId"].(string)
	}
	if recordID == "" {
		return nil, domain.MissingField("source_record_id")
	}

	cred, err := h.connections.Credential(r.Context(), userID, domain.ServiceAirtable)
	if err != nil {
		return nil, err
	}
	return h.newAirtableClient(cred.AccessToken).Record(r.Context(), baseID, tableID, recordID)
}
