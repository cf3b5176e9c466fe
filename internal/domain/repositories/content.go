package repositories

import (
	"context"

	"portal/internal/domain/models"
)

// ContentRepository stores the free-form site content rows keyed by
// section.
type ContentRepository interface {
	// GetBySection returns the most recent row for a section, or
	// domain.ErrNotFound when the section has never been written.
	GetBySection(ctx context.Context, section string) (*models.SiteContent, error)

	// Upsert writes a section row, creating it if absent.
	Upsert(ctx context.Context, content *models.SiteContent) error
}
