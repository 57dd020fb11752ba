package intake

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// File is one incoming file from the picker, a drop event, or a manifest.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Service turns incoming files into image records. Each record's payload is
// written to the uploads directory; the stored object doubles as the preview
// for image MIME types and is deleted again by Release when the record
// leaves the collection.
type Service struct {
	uploadsDir string
}

func NewService(uploadsDir string) (*Service, error) {
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Service{uploadsDir: uploadsDir}, nil
}

// Ingest creates one record per file, in input order. Files are accepted
// unconditionally: zero-byte payloads and non-image types intake fine, they
// just get no preview.
func (s *Service) Ingest(files []File) ([]models.ImageRecord, error) {
	records := make([]models.ImageRecord, 0, len(files))
	for _, f := range files {
		rec, err := s.ingestOne(f)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Service) ingestOne(f File) (models.ImageRecord, error) {
	name := filepath.Base(f.Name)
	mimeType := f.MIME
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}

	id := uuid.NewString()
	storedName := id + filepath.Ext(name)
	storedPath := filepath.Join(s.uploadsDir, storedName)
	if err := os.WriteFile(storedPath, f.Data, 0644); err != nil {
		return models.ImageRecord{}, fmt.Errorf("failed to save upload %q: %w", name, err)
	}

	rec := models.ImageRecord{
		ID:          id,
		DisplayName: name,
		SizeLabel:   SizeLabel(int64(len(f.Data))),
		MIMEType:    mimeType,
		StoredPath:  storedPath,
		UploadedAt:  time.Now(),
	}
	if strings.HasPrefix(mimeType, "image/") {
		rec.PreviewURI = "/static/previews/" + storedName
	}

	slog.Info("Image intake", "id", rec.ID, "filename", name, "size", rec.SizeLabel, "preview", rec.PreviewURI != "")
	return rec, nil
}

// Release deletes the stored object backing rec. Used as the collection
// store's eviction hook so every record leaving the store frees its preview
// exactly once.
func (s *Service) Release(rec models.ImageRecord) {
	if rec.StoredPath == "" {
		return
	}
	if err := os.Remove(rec.StoredPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to release stored upload", "id", rec.ID, "path", rec.StoredPath, "err", err)
		return
	}
	slog.Debug("Released stored upload", "id", rec.ID)
}

// PreviewPath resolves a preview filename to its on-disk location, rejecting
// anything that escapes the uploads directory.
func (s *Service) PreviewPath(name string) (string, bool) {
	cleaned := filepath.Base(name)
	if cleaned != name || strings.Contains(name, "..") {
		return "", false
	}
	return filepath.Join(s.uploadsDir, cleaned), true
}

// SizeLabel renders a byte count the way the UI displays it: MiB with two
// decimals and an "MB" suffix.
func SizeLabel(bytes int64) string {
	return fmt.Sprintf("%.2f MB", float64(bytes)/1024/1024)
}
