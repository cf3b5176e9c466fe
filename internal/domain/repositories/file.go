package repositories

import (
	"context"

	"portal/internal/domain/models"
)

// FileRepository is the record-storage contract for files scoped to a
// folder.
type FileRepository interface {
	// ListByFolder returns the files of one folder ordered by
	// (position ASC, created_at DESC).
	ListByFolder(ctx context.Context, folderID string) ([]models.File, error)

	// Insert stores a new file row and fills in its generated id and
	// timestamps.
	Insert(ctx context.Context, file *models.File) error

	// Delete removes a file row.
	Delete(ctx context.Context, id string) error

	// CountByFolder returns the number of files in a folder.
	CountByFolder(ctx context.Context, folderID string) (int, error)

	// UpdatePositions applies a reorder as one batched write keyed by id.
	UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error
}
