package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pablosocial/pablo/internal/domain"
	"github.com/pablosocial/pablo/internal/pkg/httputil"
	"github.com/pablosocial/pablo/internal/pkg/logger"
	"github.com/pablosocial/pablo/internal/service/build"
)

// GetBuild returns one of the caller's build records.
func (h *Handlers) GetBuild(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	buildID := chi.URLParam(r, "build_id")

	ad, err := h.builds.Build(r.Context(), buildID)
	if err != nil {
		if errors.Is(err, build.ErrNotFound) {
			httputil.NotFound(w, "build not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	// Builds are scoped to their owner; leak nothing about other users'.
	if ad.UserID != userID {
		httputil.NotFound(w, "build not found")
		return
	}
	httputil.OK(w, ad)
}

// UpdateBuildStatus transitions one build's lifecycle status. Called by
// the downstream build consumer when the ad finishes or fails. The new
// status is reflected back to the source system when possible.
func (h *Handlers) UpdateBuildStatus(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	buildID := chi.URLParam(r, "build_id")

	var req struct {
		Status domain.ImportStatus `json:"status"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	ad, err := h.builds.Build(r.Context(), buildID)
	if err != nil {
		if errors.Is(err, build.ErrNotFound) {
			httputil.NotFound(w, "build not found")
			return
		}
		httputil.InternalError(w, err)
		return
	}
	if ad.UserID != userID {
		httputil.NotFound(w, "build not found")
		return
	}

	if err := h.builds.UpdateStatus(r.Context(), buildID, req.Status); err != nil {
		writeBuildError(w, err)
		return
	}

	if ad.SourceType == domain.SourceNotion {
		h.pushNotionStatus(r, userID, ad.SourceRecordID, req.Status)
	}

	httputil.OK(w, map[string]string{
		"build_id": buildID,
		"status":   string(req.Status),
	})
}

// pushNotionStatus mirrors a status change onto the source Notion page.
// Best effort: the record is already updated.
func (h *Handlers) pushNotionStatus(r *http.Request, userID, pageID string, status domain.ImportStatus) {
	cred, err := h.connections.Credential(r.Context(), userID, domain.ServiceNotion)
	if err != nil {
		return
	}
	if err := h.newNotionClient(cred.AccessToken).UpdateImportStatus(r.Context(), pageID, status); err != nil {
		logger.Warn("notion status update failed", "page_id", pageID, "error", err.Error())
	}
}
