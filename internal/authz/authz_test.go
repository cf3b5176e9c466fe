package authz

import (
	"testing"

	"portal/internal/domain/models"
)

func TestCanPerform(t *testing.T) {
	adminOnly := []Action{
		ActionCreateFolder,
		ActionUploadFile,
		ActionDeleteFolder,
		ActionDeleteFile,
		ActionManageUsers,
		ActionEditContent,
	}
	open := []Action{ActionView, ActionReorder}

	tests := []struct {
		name    string
		role    models.Role
		actions []Action
		want    bool
	}{
		{
			name:    "admin can perform admin-only actions",
			role:    models.RoleAdmin,
			actions: adminOnly,
			want:    true,
		},
		{
			name:    "user cannot perform admin-only actions",
			role:    models.RoleUser,
			actions: adminOnly,
			want:    false,
		},
		{
			name:    "unresolved role cannot perform admin-only actions",
			role:    "",
			actions: adminOnly,
			want:    false,
		},
		{
			name:    "user can view and reorder",
			role:    models.RoleUser,
			actions: open,
			want:    true,
		},
		{
			name:    "unresolved role can view and reorder",
			role:    "",
			actions: open,
			want:    true,
		},
		{
			name:    "admin can view and reorder",
			role:    models.RoleAdmin,
			actions: open,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, action := range tt.actions {
				if got := CanPerform(tt.role, action); got != tt.want {
					t.Errorf("CanPerform(%q, %q) = %v, want %v", tt.role, action, got, tt.want)
				}
			}
		})
	}
}

func TestCanPerformUnknownAction(t *testing.T) {
	if CanPerform(models.RoleAdmin, Action("dropDatabase")) {
		t.Error("unknown actions must be denied even for admins")
	}
}
