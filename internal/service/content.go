package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"docforge/internal/config"
	"docforge/internal/domain"
	"docforge/internal/domain/models"
	"docforge/internal/domain/repositories"
	"docforge/internal/domain/services"
)

// lockTTL bounds how long a crashed writer can hold a document lock.
const lockTTL = 10 * time.Second

// lockWait bounds how long an update waits for the current writer.
const lockWait = 5 * time.Second

// contentService implements the ContentService interface
type contentService struct {
	docRepo     repositories.DocumentRepository
	nodeRepo    repositories.NodeRepository
	editRepo    repositories.EditRepository
	txManager   repositories.TransactionManager
	analyzer    services.ContentAnalyzer
	authorizer  services.Authorizer
	locker      services.DocumentLocker
	broadcaster services.Broadcaster
	sanitizer   *bluemonday.Policy
	logger      *slog.Logger
}

// NewContentService creates a new content service
func NewContentService(
	docRepo repositories.DocumentRepository,
	nodeRepo repositories.NodeRepository,
	editRepo repositories.EditRepository,
	txManager repositories.TransactionManager,
	analyzer services.ContentAnalyzer,
	authorizer services.Authorizer,
	locker services.DocumentLocker,
	broadcaster services.Broadcaster,
	logger *slog.Logger,
) services.ContentService {
	return &contentService{
		docRepo:     docRepo,
		nodeRepo:    nodeRepo,
		editRepo:    editRepo,
		txManager:   txManager,
		analyzer:    analyzer,
		authorizer:  authorizer,
		locker:      locker,
		broadcaster: broadcaster,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger,
	}
}

// GetDocument retrieves a document with its nested node tree
func (s *contentService) GetDocument(ctx context.Context, userID, documentID string) (*models.DocumentDetail, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizer.MayAct(ctx, userID, doc.TeamID); err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &models.DocumentDetail{
		Document: doc,
		Tree:     buildTree(nodes),
	}, nil
}

// buildTree links flat node records into the nested tree. Nodes arrive
// ordered by level then sibling order, so every parent is materialized
// before its children. Siblings under one parent can still carry
// different heading levels (the source skipped levels), so each child
// slice is sorted by sibling order after linking.
func buildTree(nodes []models.Node) *models.NodeTree {
	byID := make(map[string]*models.NodeTree, len(nodes))
	var root *models.NodeTree

	for _, n := range nodes {
		entry := &models.NodeTree{
			ID:       n.ID,
			Title:    n.Title,
			NodeType: n.NodeType,
			Level:    n.Level,
			Order:    n.Order,
			Children: []*models.NodeTree{},
		}
		byID[n.ID] = entry
		if n.ParentID == nil {
			root = entry
		}
	}

	for _, n := range nodes {
		if n.ParentID == nil {
			continue
		}
		if parent, ok := byID[*n.ParentID]; ok {
			parent.Children = append(parent.Children, byID[n.ID])
		}
	}

	for _, entry := range byID {
		sort.Slice(entry.Children, func(i, j int) bool {
			return entry.Children[i].Order < entry.Children[j].Order
		})
	}

	return root
}

// ListDocuments lists a team's documents, most recently updated first
func (s *contentService) ListDocuments(ctx context.Context, userID, teamID string) ([]models.DocumentSummary, error) {
	if err := s.authorizer.MayAct(ctx, userID, teamID); err != nil {
		return nil, err
	}

	docs, err := s.docRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	return toSummaries(docs, true), nil
}

// Search matches the query as a substring of title or current content
func (s *contentService) Search(ctx context.Context, userID, teamID, query string) ([]models.DocumentSummary, error) {
	if err := validation.Validate(query,
		validation.Required,
		validation.Length(1, config.MaxSearchQueryLength),
	); err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.MayAct(ctx, userID, teamID); err != nil {
		return nil, err
	}

	docs, err := s.docRepo.Search(ctx, teamID, query)
	if err != nil {
		return nil, err
	}

	return toSummaries(docs, false), nil
}

// GetSection reads one node's current content from the owning document's
// content map, keyed by the node's title. An absent key reads as empty
// content, not an error.
func (s *contentService) GetSection(ctx context.Context, userID, nodeID string, includeHistory bool) (*models.SectionDetail, error) {
	node, doc, err := s.loadNodeDocument(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}

	detail := &models.SectionDetail{
		ID:      node.ID,
		Title:   node.Title,
		Content: doc.CurrentContent[node.Title].Content,
		Type:    node.NodeType,
		Level:   node.Level,
	}

	if includeHistory {
		history, err := s.editRepo.ListByNode(ctx, nodeID)
		if err != nil {
			return nil, err
		}
		detail.History = history
	}

	return detail, nil
}

// GetHistory returns a node's edit ledger newest-first
func (s *contentService) GetHistory(ctx context.Context, userID, nodeID string) ([]models.Edit, error) {
	if _, _, err := s.loadNodeDocument(ctx, userID, nodeID); err != nil {
		return nil, err
	}
	return s.editRepo.ListByNode(ctx, nodeID)
}

// UpdateSection commits a section edit. The read-modify-write of the whole
// content map runs under the per-document lock, and the edit append plus
// the map replacement commit in one transaction. The content_updated
// broadcast fires only after the commit succeeds.
func (s *contentService) UpdateSection(ctx context.Context, req *services.UpdateSectionRequest) (*models.Edit, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Content,
			validation.Required,
			validation.Length(1, config.MaxSectionContentBytes),
		),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, doc, err := s.loadNodeDocument(ctx, req.UserID, req.NodeID)
	if err != nil {
		return nil, err
	}

	// Strip scripts, event handlers and other XSS vectors before the
	// content ever reaches storage or another member's browser
	content := s.sanitizer.Sanitize(req.Content)

	lockCtx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()
	release, err := s.locker.Acquire(lockCtx, doc.ID, lockTTL)
	if err != nil {
		return nil, fmt.Errorf("lock document %s: %w", doc.ID, err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("lock release failed", "document_id", doc.ID, "error", err)
		}
	}()

	now := time.Now().UTC()
	edit := &models.Edit{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		NodeID:     node.ID,
		UserID:     req.UserID,
		NewContent: content,
		CreatedAt:  now,
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		// Re-read under the lock so a just-committed concurrent edit to a
		// different section is not lost by this whole-map replacement
		fresh, err := s.docRepo.GetByID(txCtx, doc.ID)
		if err != nil {
			return err
		}

		// Absent key reads as empty previous content, not an error
		edit.PreviousContent = fresh.CurrentContent[node.Title].Content

		if err := s.editRepo.Create(txCtx, edit); err != nil {
			return err
		}

		updated := fresh.CurrentContent.Clone()
		updated[node.Title] = models.SectionContent{
			Content: content,
			Type:    models.NodeTypeSection,
		}

		return s.docRepo.UpdateCurrentContent(txCtx, doc.ID, updated, s.analyzer.WordCount(updated), now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("section updated",
		"document_id", doc.ID,
		"node_id", node.ID,
		"user_id", req.UserID,
	)

	s.broadcaster.Broadcast(doc.ID, "content_updated", map[string]any{
		"document_id": doc.ID,
		"node_id":     node.ID,
		"user_id":     req.UserID,
		"content":     content,
		"timestamp":   now.Format(time.RFC3339),
	})

	return edit, nil
}

// loadNodeDocument resolves a node and its owning document, authorizing
// the user against the owning team. Missing node and missing membership
// stay distinct (404 vs 403) without leaking more than that.
func (s *contentService) loadNodeDocument(ctx context.Context, userID, nodeID string) (*models.Node, *models.Document, error) {
	node, err := s.nodeRepo.GetByID(ctx, nodeID)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.docRepo.GetByID(ctx, node.DocumentID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.authorizer.MayAct(ctx, userID, doc.TeamID); err != nil {
		return nil, nil, err
	}

	return node, doc, nil
}

func toSummaries(docs []models.Document, includeMeta bool) []models.DocumentSummary {
	summaries := make([]models.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summary := models.DocumentSummary{
			ID:        doc.ID,
			Title:     doc.Title,
			URL:       doc.URL,
			WordCount: doc.WordCount,
			CreatedAt: doc.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: doc.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if includeMeta {
			summary.Meta = doc.Meta
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
