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

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"portal/internal/auth"
	"portal/internal/config"
	"portal/internal/handler"
	"portal/internal/middleware"
	"portal/internal/repository/postgres"
	"portal/internal/service"
	"portal/internal/storage"
	"portal/internal/upload"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging. Dev also tees logs into a rotated file
	// under logs/ for post-mortem reading.
	logLevel := slog.LevelInfo
	var logOut io.Writer = os.Stdout
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
		if logFile, err := config.SetupLogFile("logs", 5); err == nil {
			defer logFile.Close()
			logOut = io.MultiWriter(os.Stdout, logFile)
		}
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	profileRepo := postgres.NewProfileRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	contentRepo := postgres.NewContentRepository(repoConfig)

	// Blob storage and the upload saga
	blobs := storage.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
	coordinator := upload.NewCoordinator(blobs, fileRepo, contentRepo, upload.Config{
		DocumentsBucket: cfg.DocumentsBucket,
		ImagesBucket:    cfg.ImagesBucket,
	}, logger)

	// Admin API client for user management
	adminClient := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)

	// Create services
	authorizer := service.NewRoleAuthorizer(profileRepo, logger)
	folderService := service.NewFolderService(folderRepo, authorizer, logger)
	fileService := service.NewFileService(fileRepo, coordinator, authorizer, logger)
	contentService := service.NewContentService(contentRepo, coordinator, authorizer, logger)
	userService := service.NewUserService(profileRepo, adminClient, authorizer, logger)

	// Create handlers
	folderHandler := handler.NewFolderHandler(folderService, logger)
	fileHandler := handler.NewFileHandler(fileService, logger)
	contentHandler := handler.NewContentHandler(contentService, logger)
	userHandler := handler.NewUserHandler(userService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Folder routes
	mux.HandleFunc("GET /api/folders", folderHandler.ListFolders)
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("PUT /api/folders/positions", folderHandler.ReorderFolders)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)

	// File routes
	mux.HandleFunc("GET /api/folders/{id}/files", fileHandler.ListFiles)
	mux.HandleFunc("POST /api/folders/{id}/files", fileHandler.UploadFile)
	mux.HandleFunc("PUT /api/files/positions", fileHandler.ReorderFiles)
	mux.HandleFunc("DELETE /api/files/{id}", fileHandler.DeleteFile)

	// Site content routes
	mux.HandleFunc("GET /api/content/home", contentHandler.GetHome)
	mux.HandleFunc("PUT /api/content/home", contentHandler.UpdateHome)
	mux.HandleFunc("POST /api/content/home/hero", contentHandler.ReplaceHeroImage)
	mux.HandleFunc("GET /api/content/info", contentHandler.GetInfo)
	mux.HandleFunc("PUT /api/content/info", contentHandler.UpdateInfo)

	// User management routes
	mux.HandleFunc("GET /api/users", userHandler.ListUsers)
	mux.HandleFunc("DELETE /api/users/{id}", userHandler.DeleteUser)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Auth(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
