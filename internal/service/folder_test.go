package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"portal/internal/config"
	"portal/internal/domain"
	"portal/internal/domain/models"
)

type stubFolderRepo struct {
	count    int
	inserted []models.Folder
	updates  [][]models.PositionUpdate
}

func (s *stubFolderRepo) List(ctx context.Context) ([]models.Folder, error) { return nil, nil }

func (s *stubFolderRepo) Insert(ctx context.Context, folder *models.Folder) error {
	folder.ID = "new-id"
	s.inserted = append(s.inserted, *folder)
	return nil
}

func (s *stubFolderRepo) Delete(ctx context.Context, id string) error { return nil }

func (s *stubFolderRepo) Count(ctx context.Context) (int, error) { return s.count, nil }

func (s *stubFolderRepo) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	s.updates = append(s.updates, updates)
	return nil
}

func newFolderFixture(count int) (*stubFolderRepo, FolderService) {
	repo := &stubFolderRepo{count: count}
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"admin-1": {ID: "admin-1", Role: models.RoleAdmin},
		"user-1":  {ID: "user-1", Role: models.RoleUser},
	}}
	svc := NewFolderService(repo, NewRoleAuthorizer(profiles, testLogger()), testLogger())
	return repo, svc
}

func TestCreateFolderUsesCurrentCountAsPosition(t *testing.T) {
	repo, svc := newFolderFixture(4)

	folder, err := svc.CreateFolder(context.Background(), "admin-1", &CreateFolderRequest{Name: "Reports"})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Position != 4 {
		t.Errorf("position = %d, want count 4", folder.Position)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d folders, want 1", len(repo.inserted))
	}
}

func TestCreateFolderValidation(t *testing.T) {
	repo, svc := newFolderFixture(0)

	tests := []struct {
		name string
		req  CreateFolderRequest
	}{
		{"empty name", CreateFolderRequest{Name: ""}},
		{"name too long", CreateFolderRequest{Name: strings.Repeat("a", config.MaxFolderNameLength+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateFolder(context.Background(), "admin-1", &tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
	if len(repo.inserted) != 0 {
		t.Error("invalid requests must not reach the repository")
	}
}

func TestCreateFolderForbiddenForUsers(t *testing.T) {
	_, svc := newFolderFixture(0)

	if _, err := svc.CreateFolder(context.Background(), "user-1", &CreateFolderRequest{Name: "X"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestReorderFoldersOpenToUsers(t *testing.T) {
	repo, svc := newFolderFixture(0)

	req := &ReorderRequest{Positions: []models.PositionUpdate{
		{ID: "b", Position: 0},
		{ID: "a", Position: 1},
	}}
	if err := svc.ReorderFolders(context.Background(), "user-1", req); err != nil {
		t.Fatalf("reorder must be open to plain users: %v", err)
	}
	if len(repo.updates) != 1 {
		t.Errorf("updates = %d, want 1", len(repo.updates))
	}
}

func TestReorderFoldersValidation(t *testing.T) {
	_, svc := newFolderFixture(0)
	ctx := context.Background()

	bad := []*ReorderRequest{
		{},
		{Positions: []models.PositionUpdate{{ID: "", Position: 0}}},
		{Positions: []models.PositionUpdate{{ID: "a", Position: -1}}},
		{Positions: []models.PositionUpdate{{ID: "a", Position: 0}, {ID: "a", Position: 1}}},
	}
	for i, req := range bad {
		if err := svc.ReorderFolders(ctx, "user-1", req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("case %d: err = %v, want validation error", i, err)
		}
	}
}
