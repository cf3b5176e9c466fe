// Package service holds the server-side use cases behind the HTTP
// surface. Every mutating use case resolves the caller's role from its
// profile row and checks the role gate before touching storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"portal/internal/authz"
	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
)

// Authorizer decides whether a user may perform an action.
type Authorizer interface {
	// Require returns nil when the user may perform the action,
	// domain.ErrUnauthorized for anonymous callers, domain.ErrForbidden
	// otherwise.
	Require(ctx context.Context, userID string, action authz.Action) error
}

// RoleAuthorizer resolves the caller's role from its profile row and
// delegates the decision to the role gate. Missing rows and read
// failures resolve to the least privileged role; privilege is never
// granted by accident.
type RoleAuthorizer struct {
	profiles repositories.ProfileRepository
	logger   *slog.Logger
}

// NewRoleAuthorizer creates a role-based authorizer.
func NewRoleAuthorizer(profiles repositories.ProfileRepository, logger *slog.Logger) *RoleAuthorizer {
	return &RoleAuthorizer{
		profiles: profiles,
		logger:   logger,
	}
}

// Require checks the role gate for one (user, action) pair.
func (a *RoleAuthorizer) Require(ctx context.Context, userID string, action authz.Action) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}

	role := models.RoleUser
	profile, err := a.profiles.GetByID(ctx, userID)
	switch {
	case err == nil:
		if profile.Role != "" {
			role = profile.Role
		}
	case errors.Is(err, domain.ErrNotFound):
		// No profile row yet; treat as a plain user.
	default:
		a.logger.Error("role lookup failed, defaulting to least privilege", "user_id", userID, "error", err)
	}

	if !authz.CanPerform(role, action) {
		return fmt.Errorf("%s requires admin: %w", action, domain.ErrForbidden)
	}
	return nil
}
