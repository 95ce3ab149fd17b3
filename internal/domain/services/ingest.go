package services

import (
	"context"

	"docforge/internal/domain/models"
)

// PageScraper turns a URL into a structured page: fetch, sanitize, extract.
// Failures to retrieve the page surface as *domain.FetchError.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (*models.ScrapedPage, error)
}

// IngestService creates documents from external pages. The whole ingest -
// document record, root node and every section node - commits as a single
// unit of work; a failed node insert leaves nothing persisted.
type IngestService interface {
	Ingest(ctx context.Context, req *IngestRequest) (*models.Document, error)
}

// IngestRequest represents a document ingestion request
type IngestRequest struct {
	URL    string `json:"url"`
	TeamID string `json:"team_id"`
	UserID string `json:"-"` // set by handler from auth context
}
