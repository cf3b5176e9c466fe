package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
)

// PostgresProfileRepository implements the ProfileRepository interface
type PostgresProfileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(config *RepositoryConfig) repositories.ProfileRepository {
	return &PostgresProfileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves the profile for an auth user id
func (r *PostgresProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT id, email, role, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Profiles)

	var profile models.Profile
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&profile.ID,
		&profile.Email,
		&profile.Role,
		&profile.CreatedAt,
	)

	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &profile, nil
}

// List returns all profiles, newest first
func (r *PostgresProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	query := fmt.Sprintf(`
		SELECT id, email, role, created_at
		FROM %s
		ORDER BY created_at DESC
	`, r.tables.Profiles)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		err := rows.Scan(
			&profile.ID,
			&profile.Email,
			&profile.Role,
			&profile.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// Delete removes a profile row
func (r *PostgresProfileRepository) Delete(ctx context.Context, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Profiles)

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
	}

	return nil
}

// Upsert creates or updates a profile row keyed by user id
func (r *PostgresProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, email, role, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role
	`, r.tables.Profiles)

	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	if _, err := r.pool.Exec(ctx, query, profile.ID, profile.Email, profile.Role, createdAt); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}
