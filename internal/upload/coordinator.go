// Package upload coordinates the two-phase file upload: blob first,
// record second. The two phases are not atomic and there is no
// distributed transaction behind them; the failure modes are explicit
// in UploadFile's contract.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"portal/internal/domain"
	"portal/internal/domain/models"
	"portal/internal/domain/repositories"
	"portal/internal/storage"
)

// imageExtensions is the allow-list for thumbnail classification. The
// check is by extension only; content sniffing is out of scope.
var imageExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// Config carries the bucket names the coordinator writes to.
type Config struct {
	DocumentsBucket string
	ImagesBucket    string
}

// Coordinator runs uploads against blob storage and record storage.
type Coordinator struct {
	blobs   storage.BlobStore
	files   repositories.FileRepository
	content repositories.ContentRepository
	cfg     Config
	logger  *slog.Logger

	// now is swappable for deterministic blob paths in tests.
	now func() time.Time
}

// NewCoordinator creates an upload coordinator.
func NewCoordinator(
	blobs storage.BlobStore,
	files repositories.FileRepository,
	content repositories.ContentRepository,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		blobs:   blobs,
		files:   files,
		content: content,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// UploadFile runs the document upload saga.
//
// Phase 1 uploads the blob under a timestamped path unique per
// (folder, millisecond, name). Phase 2 inserts the file record carrying
// the blob's public URL. A phase-1 failure aborts with nothing created.
// A phase-2 failure returns the error and leaves the blob orphaned in
// the bucket; the orphan is invisible to the hierarchy and is logged
// with its path for manual cleanup.
func (c *Coordinator) UploadFile(
	ctx context.Context,
	folderID, name, description string,
	position int,
	contentType string,
	data []byte,
) (*models.File, error) {
	name = strings.TrimSpace(name)
	if folderID == "" {
		return nil, &domain.ValidationError{Message: "folder id is required"}
	}
	if name == "" {
		return nil, &domain.ValidationError{Message: "file name is required"}
	}
	if len(data) == 0 {
		return nil, &domain.ValidationError{Message: "file is empty"}
	}

	path := fmt.Sprintf("%s/%d-%s", folderID, c.now().UnixMilli(), name)

	fileURL, err := c.blobs.PutObject(ctx, c.cfg.DocumentsBucket, path, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("blob upload failed: %w", err)
	}

	file := &models.File{
		FolderID:    folderID,
		Name:        name,
		Description: strings.TrimSpace(description),
		FileURL:     fileURL,
		Position:    position,
	}
	if IsImageName(name) {
		file.ThumbnailURL = &fileURL
	}

	if err := c.files.Insert(ctx, file); err != nil {
		c.logger.Error("file record insert failed after blob upload, blob orphaned",
			"bucket", c.cfg.DocumentsBucket, "path", path, "error", err)
		return nil, fmt.Errorf("file record insert failed: %w", err)
	}

	return file, nil
}

// ReplaceHeroImage rotates the home hero image: it best-effort deletes
// the previous blob, uploads the new image, and points the home content
// record at it. Deletion runs first so a rotation never accumulates
// stale hero blobs; a deletion failure is logged, never returned.
func (c *Coordinator) ReplaceHeroImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	name = strings.TrimSpace(name)
	ext := extensionOf(name)
	if !imageExtensions[ext] {
		return "", &domain.ValidationError{Message: "hero image must be a jpg, jpeg, png, gif or webp file"}
	}
	if len(data) == 0 {
		return "", &domain.ValidationError{Message: "file is empty"}
	}

	home := models.DefaultHomeContent()
	row, err := c.content.GetBySection(ctx, models.SectionHome)
	switch {
	case err == nil:
		home = models.DecodeHomeContent(row.Content)
	case !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("home content read failed: %w", err)
	}

	if oldPath, ok := blobPath(home.ImageURL, c.cfg.ImagesBucket); ok {
		if err := c.blobs.RemoveObject(ctx, c.cfg.ImagesBucket, oldPath); err != nil {
			c.logger.Warn("previous hero image cleanup failed", "path", oldPath, "error", err)
		}
	}

	suffix := strings.Split(uuid.NewString(), "-")[0]
	path := fmt.Sprintf("home-hero-%d-%s.%s", c.now().UnixMilli(), suffix, ext)

	imageURL, err := c.blobs.PutObject(ctx, c.cfg.ImagesBucket, path, contentType, data)
	if err != nil {
		return "", fmt.Errorf("hero image upload failed: %w", err)
	}

	home.ImageURL = imageURL
	encoded, err := home.Encode()
	if err != nil {
		return "", fmt.Errorf("home content encode failed: %w", err)
	}
	if err := c.content.Upsert(ctx, &models.SiteContent{Section: models.SectionHome, Content: encoded}); err != nil {
		c.logger.Error("home content update failed after hero upload, blob orphaned",
			"bucket", c.cfg.ImagesBucket, "path", path, "error", err)
		return "", fmt.Errorf("home content update failed: %w", err)
	}

	return imageURL, nil
}

// IsImageName reports whether a file name carries an image extension.
func IsImageName(name string) bool {
	return imageExtensions[extensionOf(name)]
}

func extensionOf(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// blobPath extracts the object path from a public bucket URL produced by
// this deployment. Foreign or empty URLs yield ok=false.
func blobPath(publicURL, bucket string) (string, bool) {
	if publicURL == "" {
		return "", false
	}
	marker := "/storage/v1/object/public/" + bucket + "/"
	idx := strings.Index(publicURL, marker)
	if idx < 0 {
		return "", false
	}
	return publicURL[idx+len(marker):], true
}
