package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"portal/internal/auth"
	"portal/internal/domain"
	"portal/internal/domain/models"
)

func newUsersFixture(t *testing.T) (*fakeProfiles, UserService) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	profiles := &fakeProfiles{profiles: map[string]*models.Profile{
		"admin-1": {ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin},
		"user-1":  {ID: "user-1", Email: "u1@example.com", Role: models.RoleUser},
	}}
	authorizer := NewRoleAuthorizer(profiles, testLogger())
	svc := NewUserService(profiles, auth.NewAdminClient(server.URL, "service-key"), authorizer, testLogger())
	return profiles, svc
}

func TestDeleteUserRemovesAuthUserAndProfile(t *testing.T) {
	profiles, svc := newUsersFixture(t)

	if err := svc.DeleteUser(context.Background(), "admin-1", "user-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if len(profiles.deleted) != 1 || profiles.deleted[0] != "user-1" {
		t.Errorf("profile deletions = %v, want [user-1]", profiles.deleted)
	}
}

func TestDeleteUserNeverDeletesAdmins(t *testing.T) {
	profiles, svc := newUsersFixture(t)

	err := svc.DeleteUser(context.Background(), "admin-1", "admin-1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if len(profiles.deleted) != 0 {
		t.Error("admin profile must never be deleted")
	}
}

func TestDeleteUserRequiresManageUsers(t *testing.T) {
	_, svc := newUsersFixture(t)

	if err := svc.DeleteUser(context.Background(), "user-1", "user-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want forbidden for non-admin caller", err)
	}
}

func TestListUsersRequiresManageUsers(t *testing.T) {
	_, svc := newUsersFixture(t)

	if _, err := svc.ListUsers(context.Background(), "user-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("err = %v, want forbidden", err)
	}
	if users, err := svc.ListUsers(context.Background(), "admin-1"); err != nil || len(users) != 2 {
		t.Errorf("admin list = %v users, err %v", len(users), err)
	}
}
