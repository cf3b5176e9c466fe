package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"portal/internal/authz"
	"portal/internal/config"
	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
	"portal/internal/upload"
)

// UpdateHomeRequest is the payload for editing the home page copy. The
// hero image is managed separately through ReplaceHeroImage.
type UpdateHomeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateInfoRequest carries the raw HTML of the info page.
type UpdateInfoRequest struct {
	Content string `json:"content"`
}

// ContentService is the site-content use-case surface.
type ContentService interface {
	GetHome(ctx context.Context, userID string) (*models.HomeContent, error)
	UpdateHome(ctx context.Context, userID string, req *UpdateHomeRequest) (*models.HomeContent, error)
	ReplaceHeroImage(ctx context.Context, userID, name, contentType string, data []byte) (*models.HomeContent, error)
	GetInfo(ctx context.Context, userID string) (string, error)
	UpdateInfo(ctx context.Context, userID string, req *UpdateInfoRequest) error
}

type contentService struct {
	content     repositories.ContentRepository
	coordinator *upload.Coordinator
	authorizer  Authorizer
	logger      *slog.Logger
}

// NewContentService creates a new content service
func NewContentService(
	content repositories.ContentRepository,
	coordinator *upload.Coordinator,
	authorizer Authorizer,
	logger *slog.Logger,
) ContentService {
	return &contentService{
		content:     content,
		coordinator: coordinator,
		authorizer:  authorizer,
		logger:      logger,
	}
}

// GetHome returns the home page payload, falling back to the default
// copy when the row is absent or holds a pre-JSON payload.
func (s *contentService) GetHome(ctx context.Context, userID string) (*models.HomeContent, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionView); err != nil {
		return nil, err
	}

	row, err := s.content.GetBySection(ctx, models.SectionHome)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			home := models.DefaultHomeContent()
			return &home, nil
		}
		return nil, err
	}

	home := models.DecodeHomeContent(row.Content)
	return &home, nil
}

// UpdateHome rewrites the title and description, keeping the current
// hero image url.
func (s *contentService) UpdateHome(ctx context.Context, userID string, req *UpdateHomeRequest) (*models.HomeContent, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionEditContent); err != nil {
		return nil, err
	}
	if err := s.validateHomeRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	current, err := s.GetHome(ctx, userID)
	if err != nil {
		return nil, err
	}

	home := models.HomeContent{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    current.ImageURL,
	}
	encoded, err := home.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode home content: %w", err)
	}
	if err := s.content.Upsert(ctx, &models.SiteContent{Section: models.SectionHome, Content: encoded}); err != nil {
		return nil, err
	}

	s.logger.Info("home content updated", "user_id", userID)
	return &home, nil
}

// ReplaceHeroImage runs the hero rotation saga and returns the updated
// home payload.
func (s *contentService) ReplaceHeroImage(ctx context.Context, userID, name, contentType string, data []byte) (*models.HomeContent, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionEditContent); err != nil {
		return nil, err
	}

	imageURL, err := s.coordinator.ReplaceHeroImage(ctx, name, contentType, data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("hero image replaced", "user_id", userID, "image_url", imageURL)
	return s.GetHome(ctx, userID)
}

// GetInfo returns the info page HTML, empty when never written.
func (s *contentService) GetInfo(ctx context.Context, userID string) (string, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionView); err != nil {
		return "", err
	}

	row, err := s.content.GetBySection(ctx, models.SectionInfo)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.Content, nil
}

// UpdateInfo stores the info page HTML verbatim. The page is edited
// only by admins and rendered for the same trusted audience.
func (s *contentService) UpdateInfo(ctx context.Context, userID string, req *UpdateInfoRequest) error {
	if err := s.authorizer.Require(ctx, userID, authz.ActionEditContent); err != nil {
		return err
	}
	if len(req.Content) > config.MaxContentLength {
		return &domain.ValidationError{Message: "content too large"}
	}

	if err := s.content.Upsert(ctx, &models.SiteContent{Section: models.SectionInfo, Content: req.Content}); err != nil {
		return err
	}

	s.logger.Info("info content updated", "user_id", userID, "size", len(req.Content))
	return nil
}

func (s *contentService) validateHomeRequest(req *UpdateHomeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, config.MaxFolderNameLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxContentLength)),
	)
}
