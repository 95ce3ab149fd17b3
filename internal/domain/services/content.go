package services

import (
	"context"

	"docforge/internal/domain/models"
)

// ContentService owns the canonical current-content map per document and
// the append-only edit ledger; every section update goes through it.
// All methods authorize the acting user against the owning team.
type ContentService interface {
	// GetDocument retrieves a document's metadata and its nested node tree
	GetDocument(ctx context.Context, userID, documentID string) (*models.DocumentDetail, error)

	// ListDocuments lists a team's documents, most recently updated first
	ListDocuments(ctx context.Context, userID, teamID string) ([]models.DocumentSummary, error)

	// Search performs a substring match over titles and current content
	Search(ctx context.Context, userID, teamID, query string) ([]models.DocumentSummary, error)

	// GetSection reads one node's current content, optionally with its
	// full edit history (newest first)
	GetSection(ctx context.Context, userID, nodeID string, includeHistory bool) (*models.SectionDetail, error)

	// UpdateSection commits a new content value for the node's section.
	// The edit append and the content-map replacement are one atomic unit,
	// serialized per document. On commit a content_updated event is
	// broadcast to the document's room.
	UpdateSection(ctx context.Context, req *UpdateSectionRequest) (*models.Edit, error)

	// GetHistory returns a node's edit ledger newest-first
	GetHistory(ctx context.Context, userID, nodeID string) ([]models.Edit, error)
}

// UpdateSectionRequest represents a section content update
type UpdateSectionRequest struct {
	NodeID  string `json:"-"` // from URL path
	Content string `json:"content"`
	UserID  string `json:"-"` // set by handler from auth context
}
