package cmd

import (
	"fmt"
	"os"

	"github.com/pr-poehali-dev/image-description-webapp/internal/simulate"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	var (
		manifestPath string
		limit        int
		interactive  bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect manifest entries before a run",
		Long: `Inspect entries from a JSONL or Parquet manifest file.

Useful for checking names, MIME types, and sizes before feeding a manifest
to the simulate command.`,
		Example: `  # Inspect the first 5 entries interactively
  describer inspect --manifest images.jsonl --limit 5 --interactive

  # Inspect all entries (no limit)
  describer inspect --manifest images.parquet --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
				return fmt.Errorf("manifest file not found: %s", manifestPath)
			}

			return simulate.Inspect(cmd.Context(), simulate.InspectOptions{
				ManifestPath: manifestPath,
				Limit:        limit,
				Interactive:  interactive,
			})
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to image manifest (.jsonl or .parquet)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of entries to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each entry (press Enter to continue)")

	if err := cmd.MarkFlagRequired("manifest"); err != nil {
		panic(err)
	}

	return cmd
}
