package handler

import (
	"log/slog"
	"net/http"

	"docforge/internal/domain/services"
	"docforge/internal/httputil"
)

// SectionHandler handles section node HTTP requests
type SectionHandler struct {
	contentService services.ContentService
	logger         *slog.Logger
}

// NewSectionHandler creates a new section handler
func NewSectionHandler(contentService services.ContentService, logger *slog.Logger) *SectionHandler {
	return &SectionHandler{
		contentService: contentService,
		logger:         logger,
	}
}

// GetSection returns a node's current content, with history when
// ?history=true
// GET /api/nodes/{id}
func (h *SectionHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	userID := httputil.GetUserID(r)
	includeHistory := r.URL.Query().Get("history") == "true"

	section, err := h.contentService.GetSection(r.Context(), userID, id, includeHistory)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, section)
}

// UpdateSection commits a new content value for the node's section
// PUT /api/nodes/{id}
func (h *SectionHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req services.UpdateSectionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.NodeID = id
	req.UserID = httputil.GetUserID(r)

	edit, err := h.contentService.UpdateSection(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]any{
		"node_id": edit.NodeID,
		"edit_id": edit.ID,
	})
}

// GetHistory returns a node's edit ledger newest-first
// GET /api/nodes/{id}/history
func (h *SectionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	history, err := h.contentService.GetHistory(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}
