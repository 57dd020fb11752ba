package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describer",
		Short: "Image metadata web app with simulated AI analysis",
		Long: `Describer is a single-page web app for generating image metadata.

Upload images, configure the analysis options, and export the synthesized
titles, descriptions, and keywords as CSV. Analysis is simulated: a fixed
per-image delay stands in for a provider round trip and results are
templated from the filenames, so the full workflow runs without any
AI-provider account.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}
