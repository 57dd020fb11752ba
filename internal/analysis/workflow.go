package analysis

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pr-poehali-dev/image-description-webapp/internal/events"
	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
	"github.com/pr-poehali-dev/image-description-webapp/internal/storage"
)

// Progress is the event published on the bus whenever the workflow's
// observable state changes. It doubles as the status snapshot returned to
// pollers.
type Progress struct {
	Processing bool    `json:"processing"`
	Percent    float64 `json:"percent"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
}

// Workflow drives the sequential analysis loop over the image collection.
// Items are processed strictly one at a time, in stored order; progress is
// reported before each item and once more at completion. The terminal result
// list replaces the store's results only when the loop runs to the end, so
// an aborted run leaves any prior results untouched.
type Workflow struct {
	store    *storage.CollectionStore
	analyzer Analyzer
	bus      *events.Bus

	mu       sync.Mutex
	progress Progress
}

func NewWorkflow(store *storage.CollectionStore, analyzer Analyzer, bus *events.Bus) *Workflow {
	return &Workflow{store: store, analyzer: analyzer, bus: bus}
}

// Status returns the current progress snapshot.
func (w *Workflow) Status() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// Run executes one analysis pass synchronously and returns the terminal
// result list. Precondition failures are reported before any state changes.
func (w *Workflow) Run(ctx context.Context, cfg models.SessionConfig) ([]models.AnalysisResult, error) {
	snapshot, opts, err := w.begin(cfg)
	if err != nil {
		return nil, err
	}
	return w.process(ctx, snapshot, opts)
}

// Start validates preconditions, claims the running state, and executes the
// pass on a separate goroutine. A second Start while a run is active returns
// ErrAnalysisRunning. ctx should outlive the request that triggered the
// start; callers pass the server's lifetime context, not the request's.
func (w *Workflow) Start(ctx context.Context, cfg models.SessionConfig) error {
	snapshot, opts, err := w.begin(cfg)
	if err != nil {
		return err
	}
	go func() {
		if _, err := w.process(ctx, snapshot, opts); err != nil {
			slog.Warn("Analysis run did not complete", "error", err)
		}
	}()
	return nil
}

// begin checks preconditions, snapshots the collection, and claims the
// running state. On success the caller must finish with process.
func (w *Workflow) begin(cfg models.SessionConfig) ([]models.ImageRecord, Options, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, Options{}, ErrMissingAPIKey
	}
	snapshot := w.store.Images()
	if len(snapshot) == 0 {
		return nil, Options{}, ErrNoImages
	}

	w.mu.Lock()
	if w.progress.Processing {
		w.mu.Unlock()
		return nil, Options{}, ErrAnalysisRunning
	}
	w.progress = Progress{Processing: true, Total: len(snapshot)}
	w.mu.Unlock()

	opts := Options{
		Model:              cfg.ModelOrDefault(),
		UseFilenameContext: cfg.UseFilenameContext,
		IncludeDescription: cfg.IncludeDescription,
	}
	slog.Info("Analysis run started",
		"images", len(snapshot),
		"model", opts.Model,
		"include_description", opts.IncludeDescription)
	return snapshot, opts, nil
}

func (w *Workflow) process(ctx context.Context, snapshot []models.ImageRecord, opts Options) ([]models.AnalysisResult, error) {
	total := len(snapshot)
	results := make([]models.AnalysisResult, 0, total)

	for i, rec := range snapshot {
		w.publish(Progress{
			Processing: true,
			Percent:    float64(i) / float64(total) * 100,
			Completed:  i,
			Total:      total,
		})

		result, err := w.analyzer.Describe(ctx, rec, opts)
		if err != nil {
			if ctx.Err() != nil {
				w.publish(Progress{Processing: false, Percent: float64(i) / float64(total) * 100, Completed: i, Total: total})
				slog.Warn("Analysis aborted", "completed", i, "total", total, "error", err)
				return nil, err
			}
			slog.Error("Analysis failed for image", "filename", rec.DisplayName, "error", err)
			result = models.AnalysisResult{Filename: rec.DisplayName, Status: models.StatusError}
		}
		results = append(results, result)
	}

	w.store.SetResults(results, opts.IncludeDescription)
	w.publish(Progress{Processing: false, Percent: 100, Completed: total, Total: total})
	slog.Info("Analysis run completed", "results", len(results))
	return results, nil
}

func (w *Workflow) publish(p Progress) {
	w.mu.Lock()
	w.progress = p
	w.mu.Unlock()
	w.bus.Publish(p)
}
