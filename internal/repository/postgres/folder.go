package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// List returns all folders ordered by position, most recent first among
// equal positions.
func (r *PostgresFolderRepository) List(ctx context.Context) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, name, position, created_at, updated_at
		FROM %s
		ORDER BY position ASC, created_at DESC
	`, r.tables.Folders)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		err := rows.Scan(
			&folder.ID,
			&folder.Name,
			&folder.Position,
			&folder.CreatedAt,
			&folder.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// Insert creates a new folder
func (r *PostgresFolderRepository) Insert(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	now := time.Now()
	err := r.pool.QueryRow(ctx, query,
		folder.Name,
		folder.Position,
		now,
		now,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("folder '%s': %w", folder.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// Delete deletes a folder row. File rows referencing the folder are left
// in place; see the folder deletion notes in DESIGN.md.
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Folders)

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Count returns the number of folder rows
func (r *PostgresFolderRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, r.tables.Folders)

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count folders: %w", err)
	}

	return count, nil
}

// UpdatePositions rewrites the position column for every listed folder
// in a single batch. Ids that no longer exist are skipped silently: a
// reorder racing a delete should not fail the whole write.
func (r *PostgresFolderRepository) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	return updatePositions(ctx, r.pool, r.tables.Folders, updates)
}

// updatePositions is shared by the folder and file repositories.
func updatePositions(ctx context.Context, pool *pgxpool.Pool, table string, updates []models.PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET position = $1, updated_at = $2
		WHERE id = $3
	`, table)

	now := time.Now()
	batch := &pgx.Batch{}
	for _, update := range updates {
		batch.Queue(query, update.Position, now, update.ID)
	}

	results := pool.SendBatch(ctx, batch)
	defer results.Close()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("update positions in %s: %w", table, err)
		}
	}

	return nil
}
