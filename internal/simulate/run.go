package simulate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pr-poehali-dev/image-description-webapp/internal/analysis"
	"github.com/pr-poehali-dev/image-description-webapp/internal/events"
	"github.com/pr-poehali-dev/image-description-webapp/internal/export"
	"github.com/pr-poehali-dev/image-description-webapp/internal/intake"
	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
	"github.com/pr-poehali-dev/image-description-webapp/internal/storage"
)

// RunOptions configures one headless workflow run.
type RunOptions struct {
	ManifestPath string
	OutputCSV    string
	ReportPath   string
	Latency      time.Duration
	Session      models.SessionConfig
}

// Execute drives the full workflow end to end: manifest intake, sequential
// analysis with progress output, then the CSV artifact and an optional YAML
// report.
func Execute(ctx context.Context, opts RunOptions) error {
	slog.Info("Starting simulated analysis run",
		"manifest", opts.ManifestPath,
		"model", opts.Session.ModelOrDefault(),
		"latency", opts.Latency)

	entries, err := NewLoader(opts.ManifestPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("manifest contains no entries: %s", opts.ManifestPath)
	}
	slog.Info("Manifest loaded", "entries", len(entries))

	// Scratch space for the run's stored uploads.
	workDir, err := os.MkdirTemp("", "describer-simulate-")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	svc, err := intake.NewService(workDir)
	if err != nil {
		return err
	}
	store := storage.New(svc.Release)
	bus := events.NewBus()
	workflow := analysis.NewWorkflow(store, analysis.NewSimulated(opts.Latency), bus)

	files := make([]intake.File, 0, len(entries))
	for _, entry := range entries {
		files = append(files, intake.File{Name: entry.Name, MIME: entry.MIME, Data: entry.Bytes()})
	}
	records, err := svc.Ingest(files)
	if err != nil {
		return fmt.Errorf("intake failed: %w", err)
	}
	store.Append(records)

	id, ch := bus.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range ch {
			progress, ok := ev.(analysis.Progress)
			if !ok {
				continue
			}
			fmt.Printf("Progress: %3.0f%% (%d/%d)\n", progress.Percent, progress.Completed, progress.Total)
		}
	}()

	start := time.Now()
	results, err := workflow.Run(ctx, opts.Session)
	elapsed := time.Since(start)

	bus.Unsubscribe(id)
	<-printed

	if err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}

	artifact, ok := export.BuildCSV(results, opts.Session.IncludeDescription)
	if ok {
		if err := os.WriteFile(opts.OutputCSV, artifact.Data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV artifact: %w", err)
		}
		slog.Info("CSV artifact written", "path", opts.OutputCSV, "rows", len(results))
	}

	if opts.ReportPath != "" {
		report := BuildReport(opts, results, elapsed)
		if err := SaveReport(opts.ReportPath, report); err != nil {
			return err
		}
		slog.Info("Run report written", "path", opts.ReportPath)
	}

	printSummary(results, elapsed)
	return nil
}

func printSummary(results []models.AnalysisResult, elapsed time.Duration) {
	completed := 0
	failed := 0
	for _, result := range results {
		if result.Status == models.StatusError {
			failed++
		} else {
			completed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Println("Simulation Summary")
	fmt.Println("========================================")
	fmt.Printf("Images Analyzed:    %d\n", len(results))
	fmt.Printf("Completed:          %d\n", completed)
	fmt.Printf("Failed:             %d\n", failed)
	fmt.Printf("Elapsed:            %s\n", elapsed.Round(time.Millisecond))
	fmt.Println("========================================")
}
