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
	"portal/internal/upload"
)

// UploadFileRequest is the payload for a document upload. Data is the
// raw file content from the multipart part.
type UploadFileRequest struct {
	FolderID    string
	Name        string
	Description string
	ContentType string
	Data        []byte
}

// FileService is the file use-case surface.
type FileService interface {
	ListFiles(ctx context.Context, userID, folderID string) ([]models.File, error)
	UploadFile(ctx context.Context, userID string, req *UploadFileRequest) (*models.File, error)
	DeleteFile(ctx context.Context, userID, id string) error
	ReorderFiles(ctx context.Context, userID string, req *ReorderRequest) error
}

type fileService struct {
	files       repositories.FileRepository
	coordinator *upload.Coordinator
	authorizer  Authorizer
	logger      *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	files repositories.FileRepository,
	coordinator *upload.Coordinator,
	authorizer Authorizer,
	logger *slog.Logger,
) FileService {
	return &fileService{
		files:       files,
		coordinator: coordinator,
		authorizer:  authorizer,
		logger:      logger,
	}
}

func (s *fileService) ListFiles(ctx context.Context, userID, folderID string) ([]models.File, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionView); err != nil {
		return nil, err
	}
	if folderID == "" {
		return nil, &domain.ValidationError{Message: "folder id is required"}
	}
	return s.files.ListByFolder(ctx, folderID)
}

// UploadFile appends a file to the end of its folder and runs the
// blob-then-record saga through the coordinator.
func (s *fileService) UploadFile(ctx context.Context, userID string, req *UploadFileRequest) (*models.File, error) {
	if err := s.authorizer.Require(ctx, userID, authz.ActionUploadFile); err != nil {
		return nil, err
	}
	if err := s.validateUploadRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	position, err := s.files.CountByFolder(ctx, req.FolderID)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	file, err := s.coordinator.UploadFile(ctx, req.FolderID, req.Name, req.Description, position, req.ContentType, req.Data)
	if err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"folder_id", file.FolderID,
		"name", file.Name,
		"size", len(req.Data),
	)
	return file, nil
}

func (s *fileService) DeleteFile(ctx context.Context, userID, id string) error {
	if err := s.authorizer.Require(ctx, userID, authz.ActionDeleteFile); err != nil {
		return err
	}
	if id == "" {
		return &domain.ValidationError{Message: "file id is required"}
	}

	if err := s.files.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("file deleted", "id", id)
	return nil
}

func (s *fileService) ReorderFiles(ctx context.Context, userID string, req *ReorderRequest) error {
	if err := s.authorizer.Require(ctx, userID, authz.ActionReorder); err != nil {
		return err
	}
	if err := validateReorderRequest(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.files.UpdatePositions(ctx, req.Positions); err != nil {
		return err
	}

	s.logger.Info("files reordered", "count", len(req.Positions))
	return nil
}

func (s *fileService) validateUploadRequest(req *UploadFileRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FolderID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxFileNameLength),
		),
		validation.Field(&req.Description,
			validation.Length(0, config.MaxFileDescriptionLength),
		),
		validation.Field(&req.Data, validation.Required.Error("file is empty")),
	)
}
