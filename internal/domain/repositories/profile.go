package repositories

import (
	"context"

	"portal/internal/domain/models"
)

// ProfileRepository reads and manages the role records keyed by auth
// user id.
type ProfileRepository interface {
	// GetByID returns the profile for a user id, or domain.ErrNotFound
	// when no profile row exists yet.
	GetByID(ctx context.Context, userID string) (*models.Profile, error)

	// List returns all profiles ordered by created_at DESC.
	List(ctx context.Context) ([]models.Profile, error)

	// Delete removes a profile row. Deleting the profile effectively
	// revokes access; the auth user itself is managed by the auth
	// collaborator.
	Delete(ctx context.Context, userID string) error

	// Upsert creates or updates a profile row (used by seeding).
	Upsert(ctx context.Context, profile *models.Profile) error
}
