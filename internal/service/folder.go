package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"portal/internal/authz"
	"portal/internal/config"
	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
)

// CreateFolderRequest is the payload for creating a folder.
type CreateFolderRequest struct {
	Name string `json:"name"`
}

// ReorderRequest carries the explicit position of every element after a
// drag-and-drop reorder.
type ReorderRequest struct {
	Positions []models.PositionUpdate `json:"positions"`
}

// FolderService is the folder use-case surface.
type FolderService interface {
	ListFolders(ctx context.Context, userID string) ([]models.Folder, error)
	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*models.Folder, error)
	DeleteFolder(ctx context.Context, userID, id string) error
	ReorderFolders(ctx context.Context, userID string, req *ReorderRequest) error
}

type folderService struct {
	folders    repositories.FolderRepository
	authorizer Authorizer
	logger     *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(folders repositories.FolderRepository, authorizer Authorizer, logger *slog.Logger) FolderService {
	return &folderService{
		folders:    folders,
		authorizer: authorizer,
		logger:     logger,
	}
}

func (s *folderService) ListFolders(ctx context.Context, userID string) ([]models.Folder, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionView); err != nil {
		return nil, err
	}
	return s.folders.List(ctx)
}

// CreateFolder stores a new folder at the end of the list. Position is
// the current folder count; gaps from earlier deletions are not filled.
func (s *folderService) CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*models.Folder, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionCreateFolder); err != nil {
		return nil, err
	}
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	count, err := s.folders.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count folders: %w", err)
	}

	folder := &models.Folder{
		Name:     req.Name,
		Position: count,
	}
	if err := s.folders.Insert(ctx, folder); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"position", folder.Position,
	)
	return folder, nil
}

// DeleteFolder removes the folder row only. File rows keep their
// folder_id and blobs stay in the bucket; see DESIGN.md for the
// trade-off.
func (s *folderService) DeleteFolder(ctx context.Context, userID, id string) error {
	if err := s.authorizer.Require(ctx, userID, authz.ActionDeleteFolder); err != nil {
		return err
	}
	if id == "" {
		return &domain.ValidationError{Message: "folder id is required"}
	}

	if err := s.folders.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("folder deleted", "id", id)
	return nil
}

func (s *folderService) ReorderFolders(ctx context.Context, userID string, req *ReorderRequest) error {
	if err := s.authorizer.Require(ctx, userID, authz.ActionReorder); err != nil {
		return err
	}
	if err := validateReorderRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.folders.UpdatePositions(ctx, req.Positions); err != nil {
		return err
	}

	s.logger.Info("folders reordered", "count", len(req.Positions))
	return nil
}

func (s *folderService) validateCreateRequest(req *CreateFolderRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFolderNameLength),
		),
	)
}

// validateReorderRequest checks every element carries an id and a
// non-negative position, with no id repeated.
func validateReorderRequest(req *ReorderRequest) error {
	if len(req.Positions) == 0 {
		return fmt.Errorf("positions are required")
	}
	seen := make(map[string]bool, len(req.Positions))
	for _, update := range req.Positions {
		if update.ID == "" {
			return fmt.Errorf("every position update needs an id")
		}
		if update.Position < 0 {
			return fmt.Errorf("position cannot be negative")
		}
		if seen[update.ID] {
			return fmt.Errorf("duplicate id %s", update.ID)
		}
		seen[update.ID] = true
	}
	return nil
}
