package analysis

import (
	"context"
	"errors"

	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// User-visible workflow failures. Handlers map these to alert payloads.
var (
	ErrMissingAPIKey   = errors.New("API key is required")
	ErrNoImages        = errors.New("no images uploaded")
	ErrAnalysisRunning = errors.New("analysis is already running")
)

// Options carries the per-run settings an analyzer sees. They are captured
// once when a run starts and applied uniformly to every image in that run.
type Options struct {
	Model              string
	UseFilenameContext bool
	IncludeDescription bool
}

// Analyzer produces metadata for a single image record. Implementations
// should honor ctx so a run can be aborted between items.
type Analyzer interface {
	Describe(ctx context.Context, rec models.ImageRecord, opts Options) (models.AnalysisResult, error)
}
