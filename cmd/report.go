package cmd

import (
	"fmt"
	"os"

	"github.com/pr-poehali-dev/image-description-webapp/internal/simulate"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var (
		reportPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a saved run report",
		Long: `Reload a YAML run report written by the simulate command and print it
in the requested format. The csv format rebuilds the export artifact from
the report's results and writes it to stdout.`,
		Example: `  describer report --report run.yaml
  describer report --report run.yaml --format csv > results.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(reportPath); os.IsNotExist(err) {
				return fmt.Errorf("report file not found: %s", reportPath)
			}

			report, err := simulate.LoadReport(reportPath)
			if err != nil {
				return err
			}

			return simulate.RenderReport(report, format)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to a YAML run report")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or csv")

	if err := cmd.MarkFlagRequired("report"); err != nil {
		panic(err)
	}

	return cmd
}
