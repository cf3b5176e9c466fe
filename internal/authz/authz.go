// Package authz is the pure role gate: it decides, for a (role, action)
// pair, whether the action is permitted. It never touches session state
// and has no side effects; callers are responsible for having already
// established that an identity exists at all.
package authz

import "portal/internal/domain/models"

// Action is a UI affordance or mutation gated by role.
type Action string

const (
	ActionView         Action = "view"
	ActionCreateFolder Action = "createFolder"
	ActionUploadFile   Action = "uploadFile"
	ActionDeleteFolder Action = "deleteFolder"
	ActionDeleteFile   Action = "deleteFile"
	ActionReorder      Action = "reorder"
	ActionManageUsers  Action = "manageUsers"
	ActionEditContent  Action = "editContent"
)

// CanPerform reports whether a role may perform an action.
//
// view and reorder are open to every authenticated identity, including
// one whose role has not resolved yet. Everything else requires admin.
// The asymmetry is deliberate: reordering only rearranges content a
// viewer can already see, while the admin-only actions create or
// destroy it.
func CanPerform(role models.Role, action Action) bool {
	switch action {
	case ActionView, ActionReorder:
		return true
	case ActionCreateFolder, ActionUploadFile, ActionDeleteFolder,
		ActionDeleteFile, ActionManageUsers, ActionEditContent:
		return role == models.RoleAdmin
	default:
		return false
	}
}
