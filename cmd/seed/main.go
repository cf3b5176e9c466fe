package main

import (
	"context"
	_ "embed"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"portal/internal/auth"
	"portal/internal/config"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
	"portal/internal/repository/postgres"
	"portal/internal/upload"
)

//go:embed seeddata/seed.yaml
var seedYAML []byte

// seedData mirrors seeddata/seed.yaml.
type seedData struct {
	Folders []struct {
		Name  string `yaml:"name"`
		Files []struct {
			Name        string `yaml:"name"`
			Description string `yaml:"description"`
			FileURL     string `yaml:"file_url"`
		} `yaml:"files"`
	} `yaml:"folders"`
	Home struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"home"`
	Info string `yaml:"info"`
}

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo content")
	clearData := flag.Bool("clear-data", false, "Clear folders, files and site content (keep schema)")
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

	log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
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
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		log.Println("🧹 Clearing folders, files and site content...")
		if err := clearAllData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	contentRepo := postgres.NewContentRepository(repoConfig)
	profileRepo := postgres.NewProfileRepository(repoConfig)

	// Ensure the admin auth user and its profile exist
	if err := ensureAdminUser(ctx, profileRepo, cfg); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	var data seedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		log.Fatalf("Failed to parse seed data: %v", err)
	}

	// Clear existing demo data before reseeding
	log.Println("⚠️  Clearing existing folders and files...")
	if err := clearAllData(ctx, pool, tables); err != nil {
		log.Printf("Warning: Could not clear data: %v", err)
	}

	// Seed folders and files
	log.Println("📁 Seeding folders and files...")
	for i, folderData := range data.Folders {
		folder := &models.Folder{Name: folderData.Name, Position: i}
		if err := folderRepo.Insert(ctx, folder); err != nil {
			log.Printf("❌ Failed to create folder '%s': %v", folderData.Name, err)
			continue
		}

		for j, fileData := range folderData.Files {
			file := &models.File{
				FolderID:    folder.ID,
				Name:        fileData.Name,
				Description: fileData.Description,
				FileURL:     fileData.FileURL,
				Position:    j,
			}
			if upload.IsImageName(fileData.Name) {
				url := fileData.FileURL
				file.ThumbnailURL = &url
			}
			if err := fileRepo.Insert(ctx, file); err != nil {
				log.Printf("❌ Failed to create file '%s': %v", fileData.Name, err)
				continue
			}
		}
		log.Printf("✅ Created folder %d/%d: %s (%d files)", i+1, len(data.Folders), folder.Name, len(folderData.Files))
	}

	// Seed site content
	log.Println("📝 Seeding site content...")
	home := models.HomeContent{
		Title:       data.Home.Title,
		Description: data.Home.Description,
	}
	encoded, err := home.Encode()
	if err != nil {
		log.Fatalf("Failed to encode home content: %v", err)
	}
	if err := contentRepo.Upsert(ctx, &models.SiteContent{Section: models.SectionHome, Content: encoded}); err != nil {
		log.Fatalf("Failed to seed home content: %v", err)
	}
	if err := contentRepo.Upsert(ctx, &models.SiteContent{Section: models.SectionInfo, Content: data.Info}); err != nil {
		log.Fatalf("Failed to seed info content: %v", err)
	}

	log.Println("🎉 Seeding complete!")
}

// ensureAdminUser creates the admin auth user (when ADMIN_EMAIL and
// ADMIN_PASSWORD are set) and upserts its admin profile row.
func ensureAdminUser(ctx context.Context, profiles repositories.ProfileRepository, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		log.Println("⏭️  ADMIN_EMAIL not set, skipping admin user")
		return nil
	}

	adminClient := auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey)

	userID, err := adminClient.FindUserIDByEmail(cfg.AdminEmail)
	if err != nil {
		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			log.Println("⏭️  Admin auth user missing and ADMIN_PASSWORD not set, skipping")
			return nil
		}
		userID, err = adminClient.CreateUser(cfg.AdminEmail, password)
		if err != nil {
			return err
		}
		log.Printf("✅ Created admin auth user: %s", cfg.AdminEmail)
	}

	profile := &models.Profile{ID: userID, Email: cfg.AdminEmail, Role: models.RoleAdmin}
	if err := profiles.Upsert(ctx, profile); err != nil {
		return err
	}
	log.Printf("✅ Admin profile ready: %s", cfg.AdminEmail)
	return nil
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	// Enable UUID extension
	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"")
	if err != nil {
		return err
	}

	// Create profiles table (role records keyed by auth user id)
	createProfiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Profiles + ` (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createProfiles); err != nil {
		return err
	}

	// Create folders table
	createFolders := `
		CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			name TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE(name)
		)
	`
	if _, err := pool.Exec(ctx, createFolders); err != nil {
		return err
	}

	// Create files table. folder_id is NOT cascaded: deleting a folder
	// keeps its file rows, matching the delete semantics of the services.
	createFiles := `
		CREATE TABLE IF NOT EXISTS ` + tables.Files + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			folder_id UUID NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			file_url TEXT NOT NULL,
			thumbnail_url TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createFiles); err != nil {
		return err
	}

	// Create site content table
	createContent := `
		CREATE TABLE IF NOT EXISTS ` + tables.SiteContent + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			section TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createContent); err != nil {
		return err
	}

	// Create indexes
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `folders_position ON ` + tables.Folders + `(position)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `files_folder ON ` + tables.Files + `(folder_id, position)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.Files,
		tables.Folders,
		tables.SiteContent,
		tables.Profiles,
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

// clearAllData clears folders, files and site content, keeping profiles
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Files, tables.Folders, tables.SiteContent} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
