package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"docforge/internal/auth"
	"docforge/internal/collab"
	"docforge/internal/config"
	"docforge/internal/handler"
	"docforge/internal/middleware"
	"docforge/internal/notify"
	"docforge/internal/repository/postgres"
	redisrepo "docforge/internal/repository/redis"
	"docforge/internal/scrape"
	"docforge/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		logFile, err := config.SetupLogFile(dir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewHMACVerifier(cfg.JWTSecret, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create table names and ensure the schema exists
	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	docRepo := postgres.NewDocumentRepository(repoConfig)
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	editRepo := postgres.NewEditRepository(repoConfig)
	memberRepo := postgres.NewTeamMemberRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Redis-backed document locks for serialized section updates
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer redisClient.Close()

	locker := redisrepo.NewDocumentLock(redisClient)
	if err := locker.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	logger.Info("redis connected", "addr", cfg.RedisAddr)

	// Collaboration hub (doubles as the content_updated broadcaster)
	hub := collab.NewHub(logger)

	// Notifier (no-op when SMTP is not configured)
	notifier := notify.NewSMTPNotifier(notify.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
	}, memberRepo, logger)

	// Create services
	authorizer := service.NewTeamAuthorizer(memberRepo, logger)
	analyzer := service.NewContentAnalyzer()
	scraper := scrape.NewScraper(cfg.FetchTimeout, logger)
	ingestService := service.NewIngestService(scraper, docRepo, nodeRepo, txManager, analyzer, authorizer, notifier, logger)
	contentService := service.NewContentService(docRepo, nodeRepo, editRepo, txManager, analyzer, authorizer, locker, hub, logger)

	// Create handlers
	docHandler := handler.NewDocumentHandler(ingestService, contentService, logger)
	sectionHandler := handler.NewSectionHandler(contentService, logger)
	collabHandler := handler.NewCollabHandler(hub, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", docHandler.HealthCheck)

	// Document routes
	mux.HandleFunc("POST /api/documents", docHandler.IngestDocument)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)

	// Team-scoped routes
	mux.HandleFunc("GET /api/teams/{id}/documents", docHandler.ListTeamDocuments)
	mux.HandleFunc("GET /api/teams/{id}/search", docHandler.SearchTeamDocuments)

	// Section node routes
	mux.HandleFunc("GET /api/nodes/{id}", sectionHandler.GetSection)
	mux.HandleFunc("PUT /api/nodes/{id}", sectionHandler.UpdateSection)
	mux.HandleFunc("GET /api/nodes/{id}/history", sectionHandler.GetHistory)

	// Collaboration websocket
	mux.HandleFunc("GET /ws", collabHandler.ServeWS)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     root,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays disabled so websocket sessions are not cut off
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
