package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docforge/internal/config"
	"docforge/internal/domain"
	"docforge/internal/domain/models"
	"docforge/internal/domain/repositories"
	"docforge/internal/domain/services"
)

// ingestService implements the IngestService interface
type ingestService struct {
	scraper    services.PageScraper
	docRepo    repositories.DocumentRepository
	nodeRepo   repositories.NodeRepository
	txManager  repositories.TransactionManager
	analyzer   services.ContentAnalyzer
	authorizer services.Authorizer
	notifier   services.Notifier
	logger     *slog.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(
	scraper services.PageScraper,
	docRepo repositories.DocumentRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	analyzer services.ContentAnalyzer,
	authorizer services.Authorizer,
	notifier services.Notifier,
	logger *slog.Logger,
) services.IngestService {
	return &ingestService{
		scraper:    scraper,
		docRepo:    docRepo,
		nodeRepo:   nodeRepo,
		txManager:  txManager,
		analyzer:   analyzer,
		authorizer: authorizer,
		notifier:   notifier,
		logger:     logger,
	}
}

// Ingest scrapes the page at req.URL and materializes it as a document with
// its full node tree in one transaction. A fetch failure persists nothing.
func (s *ingestService) Ingest(ctx context.Context, req *services.IngestRequest) (*models.Document, error) {
	if err := validateIngestRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizer.MayAct(ctx, req.UserID, req.TeamID); err != nil {
		return nil, err
	}

	page, err := s.scraper.Scrape(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:              uuid.NewString(),
		TeamID:          req.TeamID,
		URL:             req.URL,
		Title:           page.Title,
		OriginalContent: page.Sections,
		CurrentContent:  page.Sections.Clone(),
		Meta:            page.Meta,
		WordCount:       s.analyzer.WordCount(page.Sections),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Document, root node and every section node commit together; a failed
	// insert rolls the whole ingest back.
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.Create(txCtx, doc); err != nil {
			return err
		}

		root := &models.Node{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Title:      doc.Title,
			NodeType:   models.NodeTypeRoot,
			Level:      0,
			Order:      0,
		}
		if err := s.nodeRepo.Create(txCtx, root); err != nil {
			return err
		}

		return s.materialize(txCtx, doc.ID, root.ID, page.Outline)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		"document_id", doc.ID,
		"team_id", doc.TeamID,
		"url", doc.URL,
		"sections", len(doc.CurrentContent),
	)

	// Best-effort; never blocks or fails the ingest
	s.notifier.NotifyIngested(context.WithoutCancel(ctx), doc.TeamID, doc.ID, doc.Title, doc.URL)

	return doc, nil
}

// materialize persists one node per outline entry, depth-first pre-order.
// Sibling orders start at 0 within each parent; node level comes from the
// heading level, so every child's level is strictly greater than its
// parent's.
func (s *ingestService) materialize(ctx context.Context, documentID, parentID string, headings []*models.Heading) error {
	for order, heading := range headings {
		node := &models.Node{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			ParentID:   &parentID,
			Title:      heading.Title,
			NodeType:   models.NodeTypeSection,
			Level:      heading.Level,
			Order:      order,
		}
		if err := s.nodeRepo.Create(ctx, node); err != nil {
			return err
		}

		if len(heading.Children) > 0 {
			if err := s.materialize(ctx, documentID, node.ID, heading.Children); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateIngestRequest(req *services.IngestRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.URL,
			validation.Required,
			validation.Length(1, config.MaxSourceURLLength),
			validation.By(validHTTPURL),
		),
		validation.Field(&req.TeamID, validation.Required),
	)
}

func validHTTPURL(value interface{}) error {
	raw, _ := value.(string)
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("url must have a host")
	}
	return nil
}
