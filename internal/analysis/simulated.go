package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// DefaultLatency stands in for one provider round trip per image.
const DefaultLatency = 2 * time.Second

// Simulated is a deterministic, no-network analyzer. It waits a fixed
// latency per image and then synthesizes metadata from the record's display
// name, so the full upload/analyze/export workflow can be exercised without
// any provider account. Output is stable per input, which keeps tests and
// batch runs reproducible.
type Simulated struct {
	Latency time.Duration
}

func NewSimulated(latency time.Duration) *Simulated {
	return &Simulated{Latency: latency}
}

func (s *Simulated) Describe(ctx context.Context, rec models.ImageRecord, opts Options) (models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return models.AnalysisResult{}, err
	}

	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.AnalysisResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	stem := nameStem(rec.DisplayName)
	result := models.AnalysisResult{
		Filename: rec.DisplayName,
		Title:    fmt.Sprintf("Professional photo of %s", stem),
		Keywords: keywordsFor(stem),
		Status:   models.StatusCompleted,
	}
	if opts.IncludeDescription {
		result.Description = fmt.Sprintf(
			"A detailed view of %s, captured with natural lighting and balanced composition.", stem)
	}
	return result, nil
}

// nameStem turns a display name into a human-readable phrase: extension
// stripped, separators collapsed to single spaces.
func nameStem(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	stem = strings.Join(strings.Fields(stem), " ")
	if stem == "" {
		return "untitled image"
	}
	return stem
}

func keywordsFor(stem string) string {
	terms := strings.Fields(strings.ToLower(stem))
	terms = append(terms, "photo", "high quality", "detailed")
	return strings.Join(terms, ", ")
}
