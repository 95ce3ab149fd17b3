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

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new hierarchy node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, parent_id, title, node_type, level, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		node.ID,
		node.DocumentID,
		node.ParentID,
		node.Title,
		node.NodeType,
		node.Level,
		node.Order,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("document %s: %w", node.DocumentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, parent_id, title, node_type, level, sort_order
		FROM %s
		WHERE id = $1
	`, r.tables.Nodes)

	var node models.Node
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.DocumentID,
		&node.ParentID,
		&node.Title,
		&node.NodeType,
		&node.Level,
		&node.Order,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// ListByDocument returns all nodes of a document ordered by level then
// sibling order, which lets tree assembly run in a single pass per level
func (r *PostgresNodeRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, document_id, parent_id, title, node_type, level, sort_order
		FROM %s
		WHERE document_id = $1
		ORDER BY level ASC, sort_order ASC
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{} // Empty slice, not nil - ensures JSON serializes as []
	for rows.Next() {
		var node models.Node
		if err := rows.Scan(
			&node.ID,
			&node.DocumentID,
			&node.ParentID,
			&node.Title,
			&node.NodeType,
			&node.Level,
			&node.Order,
		); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}
