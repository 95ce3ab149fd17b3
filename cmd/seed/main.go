package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"docforge/internal/auth"
	"docforge/internal/config"
	"docforge/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed team data")
	clearData := flag.Bool("clear-data", false, "Clear all documents for the seed team (keep schema)")
	issueToken := flag.Bool("issue-token", false, "Print a dev JWT for the seed user and exit")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if *issueToken {
		verifier, err := auth.NewHMACVerifier(cfg.JWTSecret, logger)
		if err != nil {
			log.Fatalf("Failed to create token issuer: %v", err)
		}
		token, err := verifier.IssueToken(cfg.SeedUserID, "dev@docforge.local", 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		log.Printf("🔑 Dev token for user %s:\n%s", cfg.SeedUserID, token)
		return
	}

	if *clearData {
		log.Printf("🧹 Clearing data only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else if *schemaOnly {
		log.Printf("🏗️  Setting up schema only (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	} else {
		log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	}

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	// Run schema to ensure tables exist
	log.Println("📋 Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	// Exit early if schema-only mode
	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	// Exit early if clear-data mode (just clear and exit)
	if *clearData {
		log.Println("🧹 Clearing existing documents...")
		if err := clearTeamData(ctx, pool, tables, cfg.SeedTeamID); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Ensure the seed team and its members exist
	log.Println("👥 Seeding team members...")
	for i, m := range getSeedMembers(cfg.SeedUserID) {
		if err := ensureTeamMember(ctx, pool, tables, cfg.SeedTeamID, m); err != nil {
			log.Fatalf("Failed to seed team member %s: %v", m.userID, err)
		}
		log.Printf("✅ Member %d/%d: %s (%s)", i+1, len(getSeedMembers(cfg.SeedUserID)), m.email, m.role)
	}

	log.Println("🎉 Seeding complete!")
	log.Printf("   Team ID: %s", cfg.SeedTeamID)
	log.Printf("   Run with --issue-token to mint a dev JWT for user %s", cfg.SeedUserID)
}

type seedMember struct {
	userID string
	email  string
	role   string
}

// getSeedMembers returns the membership roster for the local dev team. The
// first entry is the seed user so its dev token can exercise every endpoint.
func getSeedMembers(seedUserID string) []seedMember {
	return []seedMember{
		{userID: seedUserID, email: "dev@docforge.local", role: "admin"},
		{userID: "00000000-0000-0000-0000-000000000003", email: "editor@docforge.local", role: "editor"},
		{userID: "00000000-0000-0000-0000-000000000004", email: "viewer@docforge.local", role: "viewer"},
	}
}

// ensureTeamMember inserts a membership row if it doesn't exist
func ensureTeamMember(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, teamID string, m seedMember) error {
	query := `
		INSERT INTO ` + tables.TeamMembers + ` (team_id, user_id, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, user_id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role
	`
	_, err := pool.Exec(ctx, query, teamID, m.userID, m.email, m.role, time.Now())
	return err
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Edits,
		tables.Nodes,
		tables.Documents,
		tables.TeamMembers,
	}

	for _, table := range tableNames {
		dropSQL := "DROP TABLE IF EXISTS " + table + " CASCADE"
		if _, err := pool.Exec(ctx, dropSQL); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}

	return nil
}

// clearTeamData clears all documents for a team; nodes and edits go with
// them via ON DELETE CASCADE
func clearTeamData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, teamID string) error {
	_, err := pool.Exec(ctx, "DELETE FROM "+tables.Documents+" WHERE team_id = $1", teamID)
	return err
}
