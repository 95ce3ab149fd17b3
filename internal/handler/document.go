package handler

import (
	"log/slog"
	"net/http"

	"docforge/internal/domain/services"
	"docforge/internal/httputil"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	ingestService  services.IngestService
	contentService services.ContentService
	logger         *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestService services.IngestService, contentService services.ContentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestService:  ingestService,
		contentService: contentService,
		logger:         logger,
	}
}

// IngestDocument scrapes a page and creates a document with its node tree
// POST /api/documents
func (h *DocumentHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.IngestRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = userID

	doc, err := h.ingestService.Ingest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, map[string]any{
		"document_id": doc.ID,
		"title":       doc.Title,
		"url":         doc.URL,
	})
}

// GetDocument returns document metadata plus the full nested node tree
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	detail, err := h.contentService.GetDocument(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, detail)
}

// ListTeamDocuments lists a team's documents, most recently updated first
// GET /api/teams/{id}/documents
func (h *DocumentHandler) ListTeamDocuments(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if teamID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "team ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	docs, err := h.contentService.ListDocuments(r.Context(), userID, teamID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, docs)
}

// SearchTeamDocuments matches the query against titles and current content
// GET /api/teams/{id}/search?q=
func (h *DocumentHandler) SearchTeamDocuments(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("id")
	if teamID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "team ID is required")
		return
	}

	userID := httputil.GetUserID(r)
	query := r.URL.Query().Get("q")

	results, err := h.contentService.Search(r.Context(), userID, teamID, query)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, results)
}

// HealthCheck reports liveness
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
