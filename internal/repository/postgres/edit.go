package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docforge/internal/domain"
	"docforge/internal/domain/models"
	"docforge/internal/domain/repositories"
)

// PostgresEditRepository implements the EditRepository interface.
// Edits are append-only; there are no update or delete methods.
type PostgresEditRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewEditRepository creates a new edit repository
func NewEditRepository(config *RepositoryConfig) repositories.EditRepository {
	return &PostgresEditRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends an edit record
func (r *PostgresEditRepository) Create(ctx context.Context, edit *models.Edit) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, node_id, user_id, previous_content, new_content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.tables.Edits)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		edit.ID,
		edit.DocumentID,
		edit.NodeID,
		edit.UserID,
		edit.PreviousContent,
		edit.NewContent,
		edit.CreatedAt,
	).Scan(&edit.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("node %s: %w", edit.NodeID, domain.ErrNotFound)
		}
		return fmt.Errorf("create edit: %w", err)
	}

	return nil
}

// ListByNode returns a node's edits newest-first
func (r *PostgresEditRepository) ListByNode(ctx context.Context, nodeID string) ([]models.Edit, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, node_id, user_id, previous_content, new_content, created_at
		FROM %s
		WHERE node_id = $1
		ORDER BY created_at DESC, id DESC
	`, r.tables.Edits)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, nodeID)
	if err != nil {
		return nil, fmt.Errorf("list edits: %w", err)
	}
	defer rows.Close()

	edits := []models.Edit{} // Empty slice, not nil - ensures JSON serializes as []
	for rows.Next() {
		var edit models.Edit
		if err := rows.Scan(
			&edit.ID,
			&edit.DocumentID,
			&edit.NodeID,
			&edit.UserID,
			&edit.PreviousContent,
			&edit.NewContent,
			&edit.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		edits = append(edits, edit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edits: %w", err)
	}

	return edits, nil
}
