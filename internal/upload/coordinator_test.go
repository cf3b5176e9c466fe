package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"portal/internal/domain"
	"portal/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBlobs struct {
	baseURL string
	putErr  error
	puts    []string // bucket/path of successful uploads
	removes []string
	rmErr   error
	ops     []string // operation order: "put" / "remove"
}

func (f *fakeBlobs) PutObject(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.ops = append(f.ops, "put")
	f.puts = append(f.puts, bucket+"/"+path)
	return f.PublicURL(bucket, path), nil
}

func (f *fakeBlobs) RemoveObject(ctx context.Context, bucket, path string) error {
	f.ops = append(f.ops, "remove")
	f.removes = append(f.removes, bucket+"/"+path)
	return f.rmErr
}

func (f *fakeBlobs) PublicURL(bucket, path string) string {
	return f.baseURL + "/storage/v1/object/public/" + bucket + "/" + path
}

type fakeFiles struct {
	insertErr error
	inserted  []models.File
}

func (f *fakeFiles) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	return nil, nil
}

func (f *fakeFiles) Insert(ctx context.Context, file *models.File) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	file.ID = "file-1"
	f.inserted = append(f.inserted, *file)
	return nil
}

func (f *fakeFiles) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeFiles) CountByFolder(ctx context.Context, folderID string) (int, error) {
	return len(f.inserted), nil
}

func (f *fakeFiles) UpdatePositions(ctx context.Context, updates []models.PositionUpdate) error {
	return nil
}

type fakeContent struct {
	row       *models.SiteContent
	upsertErr error
}

func (f *fakeContent) GetBySection(ctx context.Context, section string) (*models.SiteContent, error) {
	if f.row == nil {
		return nil, domain.ErrNotFound
	}
	return f.row, nil
}

func (f *fakeContent) Upsert(ctx context.Context, content *models.SiteContent) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.row = content
	return nil
}

func newTestCoordinator(blobs *fakeBlobs, files *fakeFiles, content *fakeContent) *Coordinator {
	if blobs.baseURL == "" {
		blobs.baseURL = "https://proj.supabase.co"
	}
	c := NewCoordinator(blobs, files, content, Config{
		DocumentsBucket: "documents",
		ImagesBucket:    "images",
	}, testLogger())
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestUploadFileImageGetsThumbnail(t *testing.T) {
	blobs := &fakeBlobs{}
	files := &fakeFiles{}
	c := newTestCoordinator(blobs, files, &fakeContent{})

	file, err := c.UploadFile(context.Background(), "f1", "photo.JPG", "team photo", 3, "image/jpeg", []byte("img"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	wantPath := "f1/1700000000000-photo.JPG"
	if blobs.puts[0] != "documents/"+wantPath {
		t.Errorf("blob path = %q, want %q", blobs.puts[0], "documents/"+wantPath)
	}
	if file.ThumbnailURL == nil {
		t.Fatal("uppercase image extension must still classify as image")
	}
	if *file.ThumbnailURL != file.FileURL {
		t.Errorf("thumbnail %q must equal file url %q", *file.ThumbnailURL, file.FileURL)
	}
	if file.Position != 3 {
		t.Errorf("position = %d, want caller-provided 3", file.Position)
	}
}

func TestUploadFileNonImageHasNoThumbnail(t *testing.T) {
	files := &fakeFiles{}
	c := newTestCoordinator(&fakeBlobs{}, files, &fakeContent{})

	file, err := c.UploadFile(context.Background(), "f1", "report.pdf", "", 0, "application/pdf", []byte("pdf"))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if file.ThumbnailURL != nil {
		t.Errorf("non-image got thumbnail %q", *file.ThumbnailURL)
	}
}

func TestUploadFileBlobFailureCreatesNothing(t *testing.T) {
	blobs := &fakeBlobs{putErr: errors.New("bucket quota exceeded")}
	files := &fakeFiles{}
	c := newTestCoordinator(blobs, files, &fakeContent{})

	_, err := c.UploadFile(context.Background(), "f1", "report.pdf", "", 0, "", []byte("pdf"))
	if err == nil {
		t.Fatal("expected error from failed blob upload")
	}
	if len(files.inserted) != 0 {
		t.Error("phase-1 failure must not create a file record")
	}
}

func TestUploadFileRecordFailureOrphansBlob(t *testing.T) {
	blobs := &fakeBlobs{}
	files := &fakeFiles{insertErr: errors.New("foreign key violation")}
	c := newTestCoordinator(blobs, files, &fakeContent{})

	_, err := c.UploadFile(context.Background(), "f1", "report.pdf", "", 0, "", []byte("pdf"))
	if err == nil {
		t.Fatal("expected error from failed record insert")
	}
	// The blob stays where phase 1 put it; the saga does not roll back.
	if len(blobs.puts) != 1 {
		t.Errorf("expected the uploaded blob to remain, puts = %v", blobs.puts)
	}
	if len(blobs.removes) != 0 {
		t.Errorf("phase-2 failure must not delete the blob, removes = %v", blobs.removes)
	}
}

func TestUploadFileValidatesBeforeNetwork(t *testing.T) {
	blobs := &fakeBlobs{}
	c := newTestCoordinator(blobs, &fakeFiles{}, &fakeContent{})

	cases := []struct {
		name     string
		folderID string
		fileName string
		data     []byte
	}{
		{"missing folder", "", "a.pdf", []byte("x")},
		{"blank name", "f1", "   ", []byte("x")},
		{"empty data", "f1", "a.pdf", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.UploadFile(context.Background(), tc.folderID, tc.fileName, "", 0, "", tc.data)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("err = %v, want validation error", err)
			}
		})
	}
	if len(blobs.puts) != 0 {
		t.Error("validation failures must not reach blob storage")
	}
}

func TestReplaceHeroImageRotatesBlob(t *testing.T) {
	blobs := &fakeBlobs{}
	oldHome := models.HomeContent{
		Title:    "Custom title",
		ImageURL: "https://proj.supabase.co/storage/v1/object/public/images/home-hero-1-old.png",
	}
	encoded, _ := oldHome.Encode()
	content := &fakeContent{row: &models.SiteContent{Section: models.SectionHome, Content: encoded}}
	c := newTestCoordinator(blobs, &fakeFiles{}, content)

	url, err := c.ReplaceHeroImage(context.Background(), "banner.png", "image/png", []byte("img"))
	if err != nil {
		t.Fatalf("ReplaceHeroImage: %v", err)
	}

	if !strings.HasPrefix(blobs.puts[0], "images/home-hero-1700000000000-") || !strings.HasSuffix(blobs.puts[0], ".png") {
		t.Errorf("hero blob path = %q", blobs.puts[0])
	}

	updated := models.DecodeHomeContent(content.row.Content)
	if updated.ImageURL != url {
		t.Errorf("home content image = %q, want %q", updated.ImageURL, url)
	}
	if updated.Title != "Custom title" {
		t.Errorf("replacing the hero must keep the rest of the payload, title = %q", updated.Title)
	}

	if len(blobs.removes) != 1 || blobs.removes[0] != "images/home-hero-1-old.png" {
		t.Errorf("old blob not cleaned up, removes = %v", blobs.removes)
	}
	if got := strings.Join(blobs.ops, " "); got != "remove put" {
		t.Errorf("blob operations = %q, want the old hero removed before the new upload", got)
	}
}

func TestReplaceHeroImageFirstUploadRemovesNothing(t *testing.T) {
	blobs := &fakeBlobs{}
	content := &fakeContent{}
	c := newTestCoordinator(blobs, &fakeFiles{}, content)

	if _, err := c.ReplaceHeroImage(context.Background(), "banner.jpg", "image/jpeg", []byte("img")); err != nil {
		t.Fatalf("ReplaceHeroImage: %v", err)
	}
	if len(blobs.removes) != 0 {
		t.Errorf("no prior hero, removes = %v", blobs.removes)
	}
	if len(blobs.puts) != 1 {
		t.Errorf("puts = %v, want one upload", blobs.puts)
	}
}

func TestReplaceHeroImageCleanupFailureIsNotFatal(t *testing.T) {
	blobs := &fakeBlobs{rmErr: errors.New("storage unavailable")}
	oldHome := models.HomeContent{ImageURL: "https://proj.supabase.co/storage/v1/object/public/images/old.png"}
	encoded, _ := oldHome.Encode()
	content := &fakeContent{row: &models.SiteContent{Section: models.SectionHome, Content: encoded}}
	c := newTestCoordinator(blobs, &fakeFiles{}, content)

	if _, err := c.ReplaceHeroImage(context.Background(), "banner.webp", "image/webp", []byte("img")); err != nil {
		t.Fatalf("cleanup failure must not fail the replacement: %v", err)
	}
}

func TestReplaceHeroImageRejectsNonImage(t *testing.T) {
	blobs := &fakeBlobs{}
	c := newTestCoordinator(blobs, &fakeFiles{}, &fakeContent{})

	_, err := c.ReplaceHeroImage(context.Background(), "malware.exe", "", []byte("x"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(blobs.puts) != 0 {
		t.Error("rejected hero upload must not reach blob storage")
	}
}

func TestIsImageName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"animation.gif", true},
		{"banner.webp", true},
		{"report.pdf", false},
		{"noextension", false},
		{"archive.tar.gz", false},
	}
	for _, tt := range tests {
		if got := IsImageName(tt.name); got != tt.want {
			t.Errorf("IsImageName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
