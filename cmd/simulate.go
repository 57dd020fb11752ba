package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pr-poehali-dev/image-description-webapp/internal/analysis"
	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
	"github.com/pr-poehali-dev/image-description-webapp/internal/simulate"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		manifestPath       string
		outputCSV          string
		reportPath         string
		latency            time.Duration
		apiKey             string
		model              string
		includeDescription bool
		useFilenameContext bool
		verbose            bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the analysis workflow headlessly from a manifest",
		Long: `Run the full upload-analyze-export workflow without the web interface.

The manifest lists the images to feed through the pipeline (JSONL or
Parquet). Results are written as CSV, with an optional YAML run report.`,
		Example: `  describer simulate --manifest images.jsonl
  describer simulate --manifest images.parquet --latency 0 --report run.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: logLevel,
			})))

			if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
				return fmt.Errorf("manifest file not found: %s", manifestPath)
			}

			return simulate.Execute(cmd.Context(), simulate.RunOptions{
				ManifestPath: manifestPath,
				OutputCSV:    outputCSV,
				ReportPath:   reportPath,
				Latency:      latency,
				Session: models.SessionConfig{
					APIKey:             apiKey,
					Model:              model,
					IncludeDescription: includeDescription,
					UseFilenameContext: useFilenameContext,
				},
			})
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to image manifest (.jsonl or .parquet)")
	cmd.Flags().StringVar(&outputCSV, "output-csv", "image_analysis_results.csv", "Path for the CSV export")
	cmd.Flags().StringVar(&reportPath, "report", "", "Path for the YAML run report (skipped if empty)")
	cmd.Flags().DurationVar(&latency, "latency", analysis.DefaultLatency, "Simulated per-image analysis delay")
	cmd.Flags().StringVar(&apiKey, "api-key", "sk-simulated", "API key recorded in the session (never persisted)")
	cmd.Flags().StringVar(&model, "model", models.DefaultModel, "Model label for the run")
	cmd.Flags().BoolVar(&includeDescription, "include-description", false, "Add a description column to the results")
	cmd.Flags().BoolVar(&useFilenameContext, "use-filename-context", false, "Record the filename-context option in the run")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	if err := cmd.MarkFlagRequired("manifest"); err != nil {
		panic(err)
	}

	return cmd
}
