package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"docforge/internal/domain/repositories"
)

// PostgresTeamMemberRepository implements the TeamMemberRepository interface
type PostgresTeamMemberRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTeamMemberRepository creates a new team member repository
func NewTeamMemberRepository(config *RepositoryConfig) repositories.TeamMemberRepository {
	return &PostgresTeamMemberRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// IsMember reports whether the user belongs to the team, optionally
// restricted to the given roles
func (r *PostgresTeamMemberRepository) IsMember(ctx context.Context, userID, teamID string, roles ...string) (bool, error) {
	var query string
	var args []interface{}

	if len(roles) > 0 {
		query = fmt.Sprintf(`
			SELECT EXISTS (
				SELECT 1 FROM %s
				WHERE user_id = $1 AND team_id = $2 AND role = ANY($3)
			)
		`, r.tables.TeamMembers)
		args = []interface{}{userID, teamID, roles}
	} else {
		query = fmt.Sprintf(`
			SELECT EXISTS (
				SELECT 1 FROM %s
				WHERE user_id = $1 AND team_id = $2
			)
		`, r.tables.TeamMembers)
		args = []interface{}{userID, teamID}
	}

	var exists bool
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}

	return exists, nil
}

// MemberEmails returns the known email addresses of all team members
func (r *PostgresTeamMemberRepository) MemberEmails(ctx context.Context, teamID string) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT email FROM %s WHERE team_id = $1 AND email IS NOT NULL AND email <> ''
	`, r.tables.TeamMembers)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("list member emails: %w", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan member email: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member emails: %w", err)
	}

	return emails, nil
}
