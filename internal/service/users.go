package service

import (
	"context"
	"fmt"
	"log/slog"

	"portal/internal/auth"
	"portal/internal/authz"
	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
)

// UserService is the admin user-management surface.
type UserService interface {
	ListUsers(ctx context.Context, userID string) ([]models.Profile, error)
	DeleteUser(ctx context.Context, userID, targetID string) error
}

type userService struct {
	profiles   repositories.ProfileRepository
	admin      *auth.AdminClient
	authorizer Authorizer
	logger     *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(
	profiles repositories.ProfileRepository,
	admin *auth.AdminClient,
	authorizer Authorizer,
	logger *slog.Logger,
) UserService {
	return &userService{
		profiles:   profiles,
		admin:      admin,
		authorizer: authorizer,
		logger:     logger,
	}
}

func (s *userService) ListUsers(ctx context.Context, userID string) ([]models.Profile, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionManageUsers); err != nil {
		return nil, err
	}
	return s.profiles.List(ctx)
}

// DeleteUser removes an auth user and its profile row. Admin accounts
// cannot be deleted through this surface at all; demote first.
func (s *userService) DeleteUser(ctx context.Context, userID, targetID string) error {
	if err := s.authorizer.Require(ctx, userID, authz.ActionManageUsers); err != nil {
		return err
	}
	if targetID == "" {
		return &domain.ValidationError{Message: "user id is required"}
	}

	target, err := s.profiles.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Role == models.RoleAdmin {
		return &domain.ForbiddenError{Message: "admin accounts cannot be deleted"}
	}

	if err := s.admin.DeleteUser(targetID); err != nil {
		return fmt.Errorf("delete auth user: %w", err)
	}
	if err := s.profiles.Delete(ctx, targetID); err != nil {
		return err
	}

	s.logger.Info("user deleted", "id", targetID, "by", userID)
	return nil
}
