package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
)

// PostgresContentRepository implements the ContentRepository interface
type PostgresContentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewContentRepository creates a new site content repository
func NewContentRepository(config *RepositoryConfig) repositories.ContentRepository {
	return &PostgresContentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetBySection returns the most recent row for a section
func (r *PostgresContentRepository) GetBySection(ctx context.Context, section string) (*models.SiteContent, error) {
	query := fmt.Sprintf(`
		SELECT id, section, content, created_at, updated_at
		FROM %s
		WHERE section = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, r.tables.SiteContent)

	var content models.SiteContent
	err := r.pool.QueryRow(ctx, query, section).Scan(
		&content.ID,
		&content.Section,
		&content.Content,
		&content.CreatedAt,
		&content.UpdatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("site content '%s': %w", section, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get site content: %w", err)
	}

	return &content, nil
}

// Upsert writes a section row, creating it if absent
func (r *PostgresContentRepository) Upsert(ctx context.Context, content *models.SiteContent) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (section, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (section) DO UPDATE SET content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`, r.tables.SiteContent)

	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		content.Section,
		content.Content,
		now,
		now,
	).Scan(&content.ID, &content.CreatedAt, &content.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert site content: %w", err)
	}

	return nil
}
