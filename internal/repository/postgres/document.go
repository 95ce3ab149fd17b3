package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docforge/internal/domain"
	"docforge/internal/domain/models"
	"docforge/internal/domain/repositories"
)

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new document. Content maps are marshaled explicitly so
// empty maps round-trip as {} rather than NULL.
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	original, err := json.Marshal(doc.OriginalContent)
	if err != nil {
		return fmt.Errorf("marshal original content: %w", err)
	}
	current, err := json.Marshal(doc.CurrentContent)
	if err != nil {
		return fmt.Errorf("marshal current content: %w", err)
	}
	meta, err := json.Marshal(doc.Meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, team_id, url, title, original_content, current_content, meta, word_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	err = executor.QueryRow(ctx, query,
		doc.ID,
		doc.TeamID,
		doc.URL,
		doc.Title,
		original,
		current,
		meta,
		doc.WordCount,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("document for %s already exists: %w", doc.URL, domain.ErrConflict)
		}
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("team %s: %w", doc.TeamID, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID including both content maps
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, team_id, url, title, original_content, current_content, meta, word_count, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Documents)

	var doc models.Document
	var original, current, meta []byte

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.TeamID,
		&doc.URL,
		&doc.Title,
		&original,
		&current,
		&meta,
		&doc.WordCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	if err := unmarshalContent(original, &doc.OriginalContent); err != nil {
		return nil, fmt.Errorf("unmarshal original content: %w", err)
	}
	if err := unmarshalContent(current, &doc.CurrentContent); err != nil {
		return nil, fmt.Errorf("unmarshal current content: %w", err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &doc.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal meta: %w", err)
		}
	}

	return &doc, nil
}

// UpdateCurrentContent replaces the whole current-content map. The caller
// holds the document lock; this is the last write of the edit transaction.
func (r *PostgresDocumentRepository) UpdateCurrentContent(ctx context.Context, id string, content models.SectionMap, wordCount int, updatedAt time.Time) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal current content: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET current_content = $2, word_count = $3, updated_at = $4
		WHERE id = $1
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, payload, wordCount, updatedAt)
	if err != nil {
		return fmt.Errorf("update current content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListByTeam lists a team's documents without content blobs, most recently
// updated first
func (r *PostgresDocumentRepository) ListByTeam(ctx context.Context, teamID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, team_id, url, title, meta, word_count, created_at, updated_at
		FROM %s
		WHERE team_id = $1
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	return scanDocumentSummaries(rows)
}

// Search performs a case-insensitive substring match over title and
// current content
func (r *PostgresDocumentRepository) Search(ctx context.Context, teamID, search string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT id, team_id, url, title, meta, word_count, created_at, updated_at
		FROM %s
		WHERE team_id = $1 AND (title ILIKE $2 OR current_content::text ILIKE $2)
		ORDER BY updated_at DESC
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, teamID, "%"+search+"%")
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()

	return scanDocumentSummaries(rows)
}

func scanDocumentSummaries(rows pgx.Rows) ([]models.Document, error) {
	docs := []models.Document{} // Empty slice, not nil - ensures JSON serializes as []

	for rows.Next() {
		var doc models.Document
		var meta []byte
		if err := rows.Scan(
			&doc.ID,
			&doc.TeamID,
			&doc.URL,
			&doc.Title,
			&meta,
			&doc.WordCount,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &doc.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal meta: %w", err)
			}
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// unmarshalContent decodes a JSONB content blob, treating NULL as an empty
// map so callers never see a nil SectionMap.
func unmarshalContent(data []byte, dest *models.SectionMap) error {
	if len(data) == 0 {
		*dest = models.SectionMap{}
		return nil
	}
	return json.Unmarshal(data, dest)
}
