// Package hierarchy caches the two-level folder/file tree and mediates
// every mutation on it. It owns the selected-folder cursor, protects the
// file list against stale fetch responses, and gates mutations through
// the role gate using the injected session handle.
package hierarchy

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"portal/internal/authz"
	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
	"portal/internal/session"
)

// SessionReader is the session handle the store consults before gated
// operations. It is injected, never read from a package global.
type SessionReader interface {
	Snapshot() session.Snapshot
}

// Store is the hierarchy store.
type Store struct {
	folders  repositories.FolderRepository
	files    repositories.FileRepository
	sessions SessionReader
	sink     func(ReorderReceipt)
	logger   *slog.Logger

	mu             sync.Mutex
	folderList     []models.Folder
	fileList       []models.File
	selectedFolder string
	// fileGen is bumped on every folder selection; a file fetch result
	// carrying an older generation is discarded so a slow response for a
	// previously selected folder can never overwrite the current list.
	fileGen uint64
	closed  bool
	subs    map[int]func()
	nextSub int
}

// NewStore creates a hierarchy store. sink receives a receipt for every
// background reorder persistence attempt; nil means receipts are only
// logged.
func NewStore(
	folders repositories.FolderRepository,
	files repositories.FileRepository,
	sessions SessionReader,
	sink func(ReorderReceipt),
	logger *slog.Logger,
) *Store {
	return &Store{
		folders:  folders,
		files:    files,
		sessions: sessions,
		sink:     sink,
		logger:   logger,
		subs:     make(map[int]func()),
	}
}

// RefreshFolders reloads the folder list from record storage.
func (s *Store) RefreshFolders(ctx context.Context) error {
	if err := s.authorize(authz.ActionView); err != nil {
		return err
	}

	list, err := s.folders.List(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.folderList = list
	s.mu.Unlock()
	s.notify()
	return nil
}

// Folders returns a copy of the cached folder list.
func (s *Store) Folders() []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Folder(nil), s.folderList...)
}

// Files returns a copy of the cached file list for the selected folder.
func (s *Store) Files() []models.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.File(nil), s.fileList...)
}

// SelectedFolder returns the id of the selected folder, empty when none.
func (s *Store) SelectedFolder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedFolder
}

// SelectFolder moves the cursor and starts a background file fetch for
// the new folder. The cached file list is cleared immediately; results
// for any previous selection are discarded on arrival.
func (s *Store) SelectFolder(ctx context.Context, folderID string) error {
	if err := s.authorize(authz.ActionView); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.selectedFolder = folderID
	s.fileList = nil
	s.fileGen++
	gen := s.fileGen
	s.mu.Unlock()
	s.notify()

	if folderID == "" {
		return nil
	}
	go s.loadFiles(ctx, folderID, gen)
	return nil
}

// CreateFolder validates and stores a new folder at the end of the list.
// Validation runs before any network traffic.
func (s *Store) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	if err := s.authorize(authz.ActionCreateFolder); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Message: "folder name is required"}
	}

	s.mu.Lock()
	position := len(s.folderList)
	s.mu.Unlock()

	folder := &models.Folder{Name: name, Position: position}
	if err := s.folders.Insert(ctx, folder); err != nil {
		return nil, err
	}

	if err := s.RefreshFolders(ctx); err != nil {
		s.logger.Warn("folder list refresh after create failed", "error", err)
	}
	return folder, nil
}

// DeleteFolder removes a folder row. Contained file rows are left in
// place; positions of the remaining folders are not compacted until the
// next reorder.
func (s *Store) DeleteFolder(ctx context.Context, id string) error {
	if err := s.authorize(authz.ActionDeleteFolder); err != nil {
		return err
	}

	if err := s.folders.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.selectedFolder == id {
		s.selectedFolder = ""
		s.fileList = nil
		s.fileGen++
	}
	s.mu.Unlock()

	if err := s.RefreshFolders(ctx); err != nil {
		s.logger.Warn("folder list refresh after delete failed", "error", err)
	}
	return nil
}

// DeleteFile removes a file row and reloads the selected folder's list.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	if err := s.authorize(authz.ActionDeleteFile); err != nil {
		return err
	}

	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	folderID := s.selectedFolder
	s.fileGen++
	gen := s.fileGen
	s.mu.Unlock()

	if folderID != "" {
		s.loadFiles(ctx, folderID, gen)
	}
	return nil
}

// SearchFolders filters the cached folder list by case-insensitive
// substring match on the name. An empty query returns everything.
func (s *Store) SearchFolders(query string) []models.Folder {
	query = strings.ToLower(strings.TrimSpace(query))
	list := s.Folders()
	if query == "" {
		return list
	}

	matches := make([]models.Folder, 0, len(list))
	for _, folder := range list {
		if strings.Contains(strings.ToLower(folder.Name), query) {
			matches = append(matches, folder)
		}
	}
	return matches
}

// SearchFiles filters the cached file list by case-insensitive substring
// match on name or description.
func (s *Store) SearchFiles(query string) []models.File {
	query = strings.ToLower(strings.TrimSpace(query))
	list := s.Files()
	if query == "" {
		return list
	}

	matches := make([]models.File, 0, len(list))
	for _, file := range list {
		if strings.Contains(strings.ToLower(file.Name), query) ||
			strings.Contains(strings.ToLower(file.Description), query) {
			matches = append(matches, file)
		}
	}
	return matches
}

// Subscribe registers a callback invoked after every cache change.
// Returns an unsubscribe func.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close marks the store dead; in-flight fetch results are discarded on
// arrival.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *Store) loadFiles(ctx context.Context, folderID string, gen uint64) {
	list, err := s.files.ListByFolder(ctx, folderID)

	s.mu.Lock()
	if s.closed || gen != s.fileGen {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.logger.Error("file list fetch failed", "folder_id", folderID, "error", err)
		s.fileList = nil
	} else {
		s.fileList = list
	}
	s.mu.Unlock()
	s.notify()
}

// authorize checks the current session snapshot against the role gate.
func (s *Store) authorize(action authz.Action) error {
	snap := s.sessions.Snapshot()
	if !snap.SignedIn() {
		return domain.ErrUnauthorized
	}
	if !authz.CanPerform(snap.Role, action) {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
