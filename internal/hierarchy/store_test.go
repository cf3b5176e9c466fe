package hierarchy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls until cond holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition never held")
}

type fakeSessions struct {
	snap session.Snapshot
}

func (f *fakeSessions) Snapshot() session.Snapshot { return f.snap }

func adminSessions() *fakeSessions {
	return &fakeSessions{snap: session.Snapshot{
		State: session.StateReady,
		User:  &models.User{ID: "u1", Email: "admin@example.com"},
		Role:  models.RoleAdmin,
	}}
}

func userSessions() *fakeSessions {
	return &fakeSessions{snap: session.Snapshot{
		State: session.StateReady,
		User:  &models.User{ID: "u2", Email: "viewer@example.com"},
		Role:  models.RoleUser,
	}}
}

type fakeFolderRepo struct {
	mu          sync.Mutex
	list        []models.Folder
	insertCalls int
	nextID      int
	updateErr   error
	updates     [][]models.PositionUpdate
}

func (f *fakeFolderRepo) List(ctx context.Context) ([]models.Folder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Folder(nil), f.list...), nil
}

func (f *fakeFolderRepo) Insert(ctx context.Context, folder *models.Folder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	f.nextID++
	folder.ID = "f" + string(rune('0'+f.nextID))
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = folder.CreatedAt
	f.list = append(f.list, *folder)
	return nil
}

func (f *fakeFolderRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, folder := range f.list {
		if folder.ID == id {
			f.list = append(f.list[:i], f.list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeFolderRepo) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.list), nil
}

func (f *fakeFolderRepo) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates)
	return f.updateErr
}

func (f *fakeFolderRepo) updateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeFileRepo struct {
	mu        sync.Mutex
	byFolder  map[string][]models.File
	listHook  func(folderID string) // runs before returning, for fetch-race tests
	updateErr error
	updates   [][]models.PositionUpdate
}

func (f *fakeFileRepo) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	f.mu.Lock()
	hook := f.listHook
	list := append([]models.File(nil), f.byFolder[folderID]...)
	f.mu.Unlock()

	if hook != nil {
		hook(folderID)
	}
	return list, nil
}

func (f *fakeFileRepo) Insert(ctx context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byFolder[file.FolderID] = append(f.byFolder[file.FolderID], *file)
	return nil
}

func (f *fakeFileRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for folderID, files := range f.byFolder {
		for i, file := range files {
			if file.ID == id {
				f.byFolder[folderID] = append(files[:i], files[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (f *fakeFileRepo) CountByFolder(ctx context.Context, folderID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byFolder[folderID]), nil
}

func (f *fakeFileRepo) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updates)
	return f.updateErr
}

func seededFolders(names ...string) *fakeFolderRepo {
	repo := &fakeFolderRepo{}
	for i, name := range names {
		repo.list = append(repo.list, models.Folder{
			ID:       name,
			Name:     name,
			Position: i,
		})
	}
	repo.nextID = len(names)
	return repo
}

func newTestStore(folders *fakeFolderRepo, files *fakeFileRepo, sessions SessionReader) *Store {
	if files == nil {
		files = &fakeFileRepo{byFolder: map[string][]models.File{}}
	}
	return NewStore(folders, files, sessions, nil, testLogger())
}

func TestCreateFolderAppendsToEnd(t *testing.T) {
	repo := seededFolders("A", "B")
	store := newTestStore(repo, nil, adminSessions())
	if err := store.RefreshFolders(context.Background()); err != nil {
		t.Fatal(err)
	}

	folder, err := store.CreateFolder(context.Background(), "  C  ")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Name != "C" {
		t.Errorf("name = %q, want trimmed %q", folder.Name, "C")
	}
	if folder.Position != 2 {
		t.Errorf("position = %d, want list length 2", folder.Position)
	}
	if len(store.Folders()) != 3 {
		t.Errorf("folder list not refreshed after create")
	}
}

func TestCreateFolderBlankNameFailsBeforeBackend(t *testing.T) {
	repo := seededFolders()
	store := newTestStore(repo, nil, adminSessions())

	_, err := store.CreateFolder(context.Background(), "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if repo.insertCalls != 0 {
		t.Error("blank name must be rejected before any backend call")
	}
}

func TestCreateFolderRequiresAdmin(t *testing.T) {
	repo := seededFolders()
	store := newTestStore(repo, nil, userSessions())

	if _, err := store.CreateFolder(context.Background(), "C"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestRefreshFoldersRequiresSignIn(t *testing.T) {
	store := newTestStore(seededFolders("A"), nil, &fakeSessions{snap: session.Snapshot{State: session.StateReady}})

	if err := store.RefreshFolders(context.Background()); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
}

func TestSelectFolderDropsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	files := &fakeFileRepo{
		byFolder: map[string][]models.File{
			"f1": {{ID: "old", FolderID: "f1", Name: "old.pdf"}},
			"f2": {{ID: "new", FolderID: "f2", Name: "new.pdf"}},
		},
	}
	files.listHook = func(folderID string) {
		if folderID == "f1" {
			<-release // f1's response arrives after f2 was selected
		}
	}

	store := newTestStore(seededFolders("f1", "f2"), files, adminSessions())

	if err := store.SelectFolder(context.Background(), "f1"); err != nil {
		t.Fatal(err)
	}
	if err := store.SelectFolder(context.Background(), "f2"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		list := store.Files()
		return len(list) == 1 && list[0].ID == "new"
	})

	close(release)
	time.Sleep(20 * time.Millisecond)

	list := store.Files()
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("stale f1 response overwrote the f2 list: %+v", list)
	}
	if store.SelectedFolder() != "f2" {
		t.Errorf("selected folder = %q, want f2", store.SelectedFolder())
	}
}

func TestDeleteFolderClearsSelection(t *testing.T) {
	files := &fakeFileRepo{byFolder: map[string][]models.File{
		"f1": {{ID: "a", FolderID: "f1", Name: "a.pdf"}},
	}}
	store := newTestStore(seededFolders("f1", "f2"), files, adminSessions())

	if err := store.SelectFolder(context.Background(), "f1"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(store.Files()) == 1 })

	if err := store.DeleteFolder(context.Background(), "f1"); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}

	if store.SelectedFolder() != "" {
		t.Error("deleting the selected folder must clear the selection")
	}
	if len(store.Files()) != 0 {
		t.Error("deleting the selected folder must clear the file list")
	}
}

func TestDeleteFileReloadsSelectedFolder(t *testing.T) {
	files := &fakeFileRepo{byFolder: map[string][]models.File{
		"f1": {
			{ID: "a", FolderID: "f1", Name: "a.pdf"},
			{ID: "b", FolderID: "f1", Name: "b.pdf"},
		},
	}}
	store := newTestStore(seededFolders("f1"), files, adminSessions())

	if err := store.SelectFolder(context.Background(), "f1"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(store.Files()) == 2 })

	if err := store.DeleteFile(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	list := store.Files()
	if len(list) != 1 || list[0].ID != "b" {
		t.Fatalf("file list after delete = %+v, want only b", list)
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	files := &fakeFileRepo{byFolder: map[string][]models.File{
		"f1": {
			{ID: "a", FolderID: "f1", Name: "Annual Report.pdf", Description: "финансы"},
			{ID: "b", FolderID: "f1", Name: "photo.jpg", Description: "Team offsite REPORT"},
			{ID: "c", FolderID: "f1", Name: "notes.txt"},
		},
	}}
	store := newTestStore(seededFolders("Documents", "Images"), files, adminSessions())
	if err := store.RefreshFolders(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := store.SelectFolder(context.Background(), "f1"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(store.Files()) == 3 })

	folders := store.SearchFolders("doc")
	if len(folders) != 1 || folders[0].Name != "Documents" {
		t.Errorf("SearchFolders(doc) = %+v", folders)
	}

	// Name and description both participate in the match.
	matched := store.SearchFiles("report")
	if len(matched) != 2 {
		t.Errorf("SearchFiles(report) matched %d files, want 2", len(matched))
	}

	if got := store.SearchFiles(""); len(got) != 3 {
		t.Errorf("empty query must return the full list, got %d", len(got))
	}
}
