package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docforge/internal/domain"
	"docforge/internal/domain/models"
	"docforge/internal/domain/services"
	"docforge/internal/httputil"
)

type stubIngestService struct {
	lastReq *services.IngestRequest
	doc     *models.Document
	err     error
}

func (s *stubIngestService) Ingest(_ context.Context, req *services.IngestRequest) (*models.Document, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

type stubContentService struct {
	lastUpdate  *services.UpdateSectionRequest
	lastUserID  string
	lastQuery   string
	lastHistory bool
	detail      *models.DocumentDetail
	summaries   []models.DocumentSummary
	section     *models.SectionDetail
	edit        *models.Edit
	edits       []models.Edit
	err         error
}

func (s *stubContentService) GetDocument(_ context.Context, userID, documentID string) (*models.DocumentDetail, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubContentService) ListDocuments(_ context.Context, userID, teamID string) ([]models.DocumentSummary, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.summaries, nil
}

func (s *stubContentService) Search(_ context.Context, userID, teamID, query string) ([]models.DocumentSummary, error) {
	s.lastUserID = userID
	s.lastQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.summaries, nil
}

func (s *stubContentService) GetSection(_ context.Context, userID, nodeID string, includeHistory bool) (*models.SectionDetail, error) {
	s.lastUserID = userID
	s.lastHistory = includeHistory
	if s.err != nil {
		return nil, s.err
	}
	return s.section, nil
}

func (s *stubContentService) UpdateSection(_ context.Context, req *services.UpdateSectionRequest) (*models.Edit, error) {
	s.lastUpdate = req
	if s.err != nil {
		return nil, s.err
	}
	return s.edit, nil
}

func (s *stubContentService) GetHistory(_ context.Context, userID, nodeID string) ([]models.Edit, error) {
	s.lastUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.edits, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMux registers the handlers the same way cmd/server does so PathValue
// works in tests.
func newMux(doc *DocumentHandler, section *SectionHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents", doc.IngestDocument)
	mux.HandleFunc("GET /api/documents/{id}", doc.GetDocument)
	mux.HandleFunc("GET /api/teams/{id}/documents", doc.ListTeamDocuments)
	mux.HandleFunc("GET /api/teams/{id}/search", doc.SearchTeamDocuments)
	mux.HandleFunc("GET /api/nodes/{id}", section.GetSection)
	mux.HandleFunc("PUT /api/nodes/{id}", section.UpdateSection)
	mux.HandleFunc("GET /api/nodes/{id}/history", section.GetHistory)
	return mux
}

func doRequest(mux *http.ServeMux, method, target, userID string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		req = httputil.WithUserID(req, userID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestIngestDocument_Created(t *testing.T) {
	ingest := &stubIngestService{doc: &models.Document{
		ID:    "doc-1",
		Title: "Getting Started",
		URL:   "https://docs.example.com/start",
	}}
	content := &stubContentService{}
	mux := newMux(NewDocumentHandler(ingest, content, testLogger()), NewSectionHandler(content, testLogger()))

	rec := doRequest(mux, http.MethodPost, "/api/documents", "user-1",
		`{"url":"https://docs.example.com/start","team_id":"team-1"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if ingest.lastReq.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1 (from auth context)", ingest.lastReq.UserID)
	}
	if ingest.lastReq.TeamID != "team-1" {
		t.Errorf("TeamID = %q, want team-1", ingest.lastReq.TeamID)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["document_id"] != "doc-1" || resp["title"] != "Getting Started" {
		t.Errorf("response = %v", resp)
	}
}

func TestIngestDocument_FetchFailureStatus(t *testing.T) {
	tests := []struct {
		name       string
		kind       domain.FetchErrorKind
		wantStatus int
	}{
		{"timeout maps to 504", domain.FetchErrTimeout, http.StatusGatewayTimeout},
		{"network maps to 502", domain.FetchErrNetwork, http.StatusBadGateway},
		{"http status maps to 502", domain.FetchErrHTTPStatus, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest := &stubIngestService{err: &domain.FetchError{Kind: tt.kind, URL: "https://example.com"}}
			content := &stubContentService{}
			mux := newMux(NewDocumentHandler(ingest, content, testLogger()), NewSectionHandler(content, testLogger()))

			rec := doRequest(mux, http.MethodPost, "/api/documents", "user-1",
				`{"url":"https://example.com","team_id":"team-1"}`)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			// The problem body carries the upstream context
			var problem map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("unmarshal problem body: %v", err)
			}
			if problem["url"] != "https://example.com" {
				t.Errorf("problem url = %v, want the fetched URL", problem["url"])
			}
			if problem["kind"] != string(tt.kind) {
				t.Errorf("problem kind = %v, want %s", problem["kind"], tt.kind)
			}
		})
	}
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"validation", domain.ErrValidation, http.StatusBadRequest},
		{"conflict", domain.ErrConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := &stubContentService{err: tt.err}
			mux := newMux(NewDocumentHandler(&stubIngestService{}, content, testLogger()), NewSectionHandler(content, testLogger()))

			rec := doRequest(mux, http.MethodGet, "/api/documents/doc-1", "user-1", "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/problem+json") {
				t.Errorf("Content-Type = %q, want problem+json", ct)
			}
		})
	}
}

func TestGetSection_HistoryFlag(t *testing.T) {
	content := &stubContentService{section: &models.SectionDetail{
		ID:      "node-1",
		Title:   "Intro",
		Content: "hello",
		Type:    models.NodeTypeSection,
		Level:   1,
	}}
	mux := newMux(NewDocumentHandler(&stubIngestService{}, content, testLogger()), NewSectionHandler(content, testLogger()))

	rec := doRequest(mux, http.MethodGet, "/api/nodes/node-1?history=true", "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !content.lastHistory {
		t.Error("includeHistory not propagated from query param")
	}

	rec = doRequest(mux, http.MethodGet, "/api/nodes/node-1", "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if content.lastHistory {
		t.Error("includeHistory should be false without the query param")
	}
}

func TestUpdateSection_BindsPathAndUser(t *testing.T) {
	content := &stubContentService{edit: &models.Edit{ID: "edit-1", NodeID: "node-1"}}
	mux := newMux(NewDocumentHandler(&stubIngestService{}, content, testLogger()), NewSectionHandler(content, testLogger()))

	rec := doRequest(mux, http.MethodPut, "/api/nodes/node-1", "user-2", `{"content":"updated text","user_id":"spoofed"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if content.lastUpdate.NodeID != "node-1" {
		t.Errorf("NodeID = %q, want node-1 (from path)", content.lastUpdate.NodeID)
	}
	if content.lastUpdate.UserID != "user-2" {
		t.Errorf("UserID = %q, want user-2 (payload user_id must be ignored)", content.lastUpdate.UserID)
	}
	if content.lastUpdate.Content != "updated text" {
		t.Errorf("Content = %q", content.lastUpdate.Content)
	}
}

func TestSearch_PassesQuery(t *testing.T) {
	content := &stubContentService{summaries: []models.DocumentSummary{}}
	mux := newMux(NewDocumentHandler(&stubIngestService{}, content, testLogger()), NewSectionHandler(content, testLogger()))

	rec := doRequest(mux, http.MethodGet, "/api/teams/team-1/search?q=install", "user-1", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if content.lastQuery != "install" {
		t.Errorf("query = %q, want install", content.lastQuery)
	}
	// empty result set serializes as [], not null
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}
