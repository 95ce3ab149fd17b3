package repositories

import (
	"context"
	"time"

	"docforge/internal/domain/models"
)

// DocumentRepository persists ingested documents and their content maps.
type DocumentRepository interface {
	// Create inserts a new document. Content maps are stored as given;
	// OriginalContent is never written again after this call.
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document including both content maps
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// UpdateCurrentContent replaces the whole current-content map and the
	// document's update timestamp. Callers are responsible for per-document
	// serialization of the surrounding read-modify-write.
	UpdateCurrentContent(ctx context.Context, id string, content models.SectionMap, wordCount int, updatedAt time.Time) error

	// ListByTeam lists a team's documents without content blobs,
	// most recently updated first
	ListByTeam(ctx context.Context, teamID string) ([]models.Document, error)

	// Search performs a substring match over title and current content
	Search(ctx context.Context, teamID, query string) ([]models.Document, error)
}

// NodeRepository persists section hierarchy nodes. Nodes are written only
// during ingestion and deleted only with the owning document.
type NodeRepository interface {
	Create(ctx context.Context, node *models.Node) error
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// ListByDocument returns all nodes of a document ordered by
	// level then sibling order
	ListByDocument(ctx context.Context, documentID string) ([]models.Node, error)
}

// EditRepository persists the append-only edit ledger.
type EditRepository interface {
	Create(ctx context.Context, edit *models.Edit) error

	// ListByNode returns a node's edits newest-first
	ListByNode(ctx context.Context, nodeID string) ([]models.Edit, error)
}

// TeamMemberRepository answers membership questions for the authorization
// capability. Team lifecycle (creation, invitations) is managed elsewhere.
type TeamMemberRepository interface {
	// IsMember reports whether the user belongs to the team, optionally
	// restricted to the given roles
	IsMember(ctx context.Context, userID, teamID string, roles ...string) (bool, error)

	// MemberEmails returns the known email addresses of all team members;
	// members without a stored address are omitted
	MemberEmails(ctx context.Context, teamID string) ([]string, error)
}
