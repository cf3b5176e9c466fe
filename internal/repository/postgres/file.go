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

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// ListByFolder returns the files of one folder in display order.
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, folder_id, name, description, file_url, thumbnail_url, position, created_at, updated_at
		FROM %s
		WHERE folder_id = $1
		ORDER BY position ASC, created_at DESC
	`, r.tables.Files)

	rows, err := r.pool.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		err := rows.Scan(
			&file.ID,
			&file.FolderID,
			&file.Name,
			&file.Description,
			&file.FileURL,
			&file.ThumbnailURL,
			&file.Position,
			&file.CreatedAt,
			&file.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

// Insert creates a new file row
func (r *PostgresFileRepository) Insert(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_id, name, description, file_url, thumbnail_url, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, r.tables.Files)

	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		file.FolderID,
		file.Name,
		file.Description,
		file.FileURL,
		file.ThumbnailURL,
		file.Position,
		now,
		now,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("folder %s: %w", file.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// Delete deletes a file row
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Files)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountByFolder returns the number of files in a folder
func (r *PostgresFileRepository) CountByFolder(ctx context.Context, folderID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE folder_id = $1`, r.tables.Files)

	var count int
	if err := r.pool.QueryRow(ctx, query, folderID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}

	return count, nil
}

// UpdatePositions rewrites the position column for every listed file in
// a single batch.
func (r *PostgresFileRepository) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	return updatePositions(ctx, r.pool, r.tables.Files, updates)
}
