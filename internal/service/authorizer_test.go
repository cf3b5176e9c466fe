package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"portal/internal/authz"
	"portal/internal/domain"
	"portal/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProfiles struct {
	profiles map[string]*models.Profile
	err      error
	deleted  []string
}

func (f *fakeProfiles) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	profile, ok := f.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return profile, nil
}

func (f *fakeProfiles) List(ctx context.Context) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfiles) Delete(ctx context.Context, userID string) error {
	f.deleted = append(f.deleted, userID)
	delete(f.profiles, userID)
	return nil
}

func (f *fakeProfiles) Upsert(ctx context.Context, profile *models.Profile) error {
	f.profiles[profile.ID] = profile
	return nil
}

func TestRequireAnonymousIsUnauthorized(t *testing.T) {
	a := NewRoleAuthorizer(&fakeProfiles{profiles: map[string]*models.Profile{}}, testLogger())

	if err := a.Require(context.Background(), "", authz.ActionView); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("err = %v, want unauthorized", err)
	}
}

func TestRequireAdminAction(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"admin-1": {ID: "admin-1", Role: models.RoleAdmin},
		"user-1":  {ID: "user-1", Role: models.RoleUser},
	}}
	a := NewRoleAuthorizer(profiles, testLogger())
	ctx := context.Background()

	if err := a.Require(ctx, "admin-1", authz.ActionCreateFolder); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
	if err := a.Require(ctx, "user-1", authz.ActionCreateFolder); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("user err = %v, want forbidden", err)
	}
}

func TestRequireMissingProfileIsLeastPrivilege(t *testing.T) {
	a := NewRoleAuthorizer(&fakeProfiles{profiles: map[string]*models.Profile{}}, testLogger())
	ctx := context.Background()

	// A user without a profile row can still view.
	if err := a.Require(ctx, "ghost", authz.ActionView); err != nil {
		t.Errorf("view should pass without a profile row: %v", err)
	}
	if err := a.Require(ctx, "ghost", authz.ActionManageUsers); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want forbidden", err)
	}
}

func TestRequireLookupFailureNeverGrantsAdmin(t *testing.T) {
	a := NewRoleAuthorizer(&fakeProfiles{err: errors.New("connection reset")}, testLogger())

	if err := a.Require(context.Background(), "admin-1", authz.ActionDeleteFolder); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want forbidden on lookup failure", err)
	}
}
