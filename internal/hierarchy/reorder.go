package hierarchy

import (
	"context"
	"time"

	"portal/internal/authz"
	"portal/internal/domain"
	"portal/internal/domain/models"
)

// ReorderKind says which list a reorder receipt is about.
type ReorderKind string

const (
	ReorderFoldersKind ReorderKind = "folders"
	ReorderFilesKind   ReorderKind = "files"
)

// ReorderReceipt is the outcome of one background reorder persistence
// attempt. The optimistic local order is kept either way; a non-nil Err
// means record storage still holds the previous order and the receipt is
// the only signal of the divergence.
type ReorderReceipt struct {
	Kind  ReorderKind
	Count int
	Err   error
}

// persistTimeout bounds the background position write; the UI is not
// waiting on it.
const persistTimeout = 30 * time.Second

// ReorderFolders applies a new folder order optimistically and persists
// the re-indexed positions in the background. orderedIDs must be a
// permutation of the cached folder ids. Lists of one or zero elements
// are a no-op.
func (s *Store) ReorderFolders(ctx context.Context, orderedIDs []string) error {
	if err := s.authorize(authz.ActionReorder); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || len(s.folderList) <= 1 {
		s.mu.Unlock()
		return nil
	}

	byID := make(map[string]models.Folder, len(s.folderList))
	for _, folder := range s.folderList {
		byID[folder.ID] = folder
	}
	reordered, updates, ok := applyOrder(orderedIDs, byID, func(f models.Folder, pos int) models.Folder {
		f.Position = pos
		return f
	})
	if !ok {
		s.mu.Unlock()
		return &domain.ValidationError{Message: "reorder must be a permutation of the current folders"}
	}

	s.folderList = reordered
	s.mu.Unlock()
	s.notify()

	go s.persistPositions(ReorderFoldersKind, updates, s.folders.UpdatePositions)
	return nil
}

// ReorderFiles applies a new order for the selected folder's files, same
// contract as ReorderFolders.
func (s *Store) ReorderFiles(ctx context.Context, orderedIDs []string) error {
	if err := s.authorize(authz.ActionReorder); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || len(s.fileList) <= 1 {
		s.mu.Unlock()
		return nil
	}

	byID := make(map[string]models.File, len(s.fileList))
	for _, file := range s.fileList {
		byID[file.ID] = file
	}
	reordered, updates, ok := applyOrder(orderedIDs, byID, func(f models.File, pos int) models.File {
		f.Position = pos
		return f
	})
	if !ok {
		s.mu.Unlock()
		return &domain.ValidationError{Message: "reorder must be a permutation of the current files"}
	}

	s.fileList = reordered
	s.mu.Unlock()
	s.notify()

	go s.persistPositions(ReorderFilesKind, updates, s.files.UpdatePositions)
	return nil
}

// applyOrder rebuilds a list in the given id order, re-indexing every
// position to its list index. Returns ok=false when orderedIDs is not a
// permutation of the map's keys.
func applyOrder[T any](
	orderedIDs []string,
	byID map[string]T,
	withPosition func(T, int) T,
) ([]T, []models.PositionUpdate, bool) {
	if len(orderedIDs) != len(byID) {
		return nil, nil, false
	}

	reordered := make([]T, 0, len(orderedIDs))
	updates := make([]models.PositionUpdate, 0, len(orderedIDs))
	seen := make(map[string]bool, len(orderedIDs))
	for i, id := range orderedIDs {
		item, exists := byID[id]
		if !exists || seen[id] {
			return nil, nil, false
		}
		seen[id] = true
		reordered = append(reordered, withPosition(item, i))
		updates = append(updates, models.PositionUpdate{ID: id, Position: i})
	}
	return reordered, updates, true
}

// persistPositions runs in the background: the optimistic order is
// already live and is never rolled back on failure. The receipt goes to
// the diagnostics sink so callers can surface or count the divergence.
func (s *Store) persistPositions(
	kind ReorderKind,
	updates []models.PositionUpdate,
	write func(context.Context, []models.PositionUpdate) error,
) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	err := write(ctx, updates)
	if err != nil {
		s.logger.Error("reorder persistence failed, local order kept", "kind", string(kind), "count", len(updates), "error", err)
	}
	if s.sink != nil {
		s.sink(ReorderReceipt{Kind: kind, Count: len(updates), Err: err})
	}
}
