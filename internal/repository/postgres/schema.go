package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates tables and indexes if they don't exist. Safe to run
// on every startup; DDL is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, tablePrefix string) error {
	// Enable UUID extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\""); err != nil {
		return err
	}

	// Create team members table
	createTeamMembers := `
		CREATE TABLE IF NOT EXISTS ` + tables.TeamMembers + ` (
			team_id UUID NOT NULL,
			user_id UUID NOT NULL,
			role TEXT NOT NULL DEFAULT 'member',
			email TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (team_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createTeamMembers); err != nil {
		return err
	}

	// Create documents table
	createDocuments := `
		CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			team_id UUID NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			original_content JSONB NOT NULL,
			current_content JSONB NOT NULL,
			meta JSONB NOT NULL DEFAULT '{}',
			word_count INTEGER DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createDocuments); err != nil {
		return err
	}

	// Create nodes table
	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			parent_id UUID REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			node_type TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return err
	}

	// Create edits table
	createEdits := `
		CREATE TABLE IF NOT EXISTS ` + tables.Edits + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			node_id UUID NOT NULL REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL,
			previous_content TEXT NOT NULL DEFAULT '',
			new_content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createEdits); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `documents_team_id ON ` + tables.Documents + `(team_id, updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_document_id ON ` + tables.Nodes + `(document_id, level, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `edits_node_id ON ` + tables.Edits + `(node_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `team_members_user ON ` + tables.TeamMembers + `(user_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}
