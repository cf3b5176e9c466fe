package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Profiles    string
	Folders     string
	Files       string
	SiteContent string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Profiles:    fmt.Sprintf("%sprofiles", prefix),
		Folders:     fmt.Sprintf("%sfolders", prefix),
		Files:       fmt.Sprintf("%sfiles", prefix),
		SiteContent: fmt.Sprintf("%ssite_content", prefix),
	}
}

// CreateConnectionPool creates a new pgx connection pool with automatic
// PgBouncer compatibility.
//
// Supabase's transaction pooler (port 6543) does not support prepared
// statements, which pgx uses by default (QueryExecModeCacheStatement).
// When that port is detected and the user has not overridden the mode in
// the connection string, the pool is switched to QueryExecModeCacheDescribe:
// it still uses the extended protocol (needed for JSONB parameters) but
// caches statement descriptions rather than prepared statements, so it
// works behind the pooler. Direct connections (port 5432) keep the
// default for performance.
//
// The fmt.Sprintf table prefixes used by the repositories are safe with
// prepared statements: the SQL string is interpolated before being sent,
// so each environment gets its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	// Configure pool size
	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
