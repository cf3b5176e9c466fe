package repositories

import (
	"context"

	"portal/internal/domain/models"
)

// FolderRepository is the record-storage contract for the root-level
// folder list.
type FolderRepository interface {
	// List returns all folders ordered by (position ASC, created_at DESC).
	List(ctx context.Context) ([]models.Folder, error)

	// Insert stores a new folder and fills in its generated id and
	// timestamps.
	Insert(ctx context.Context, folder *models.Folder) error

	// Delete removes a folder row. Contained file rows are NOT cascaded
	// at this layer.
	Delete(ctx context.Context, id string) error

	// Count returns the number of folder rows (append-to-end position
	// assignment).
	Count(ctx context.Context) (int, error)

	// UpdatePositions applies a reorder as one batched write keyed by id.
	UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error
}
