package simulate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pr-poehali-dev/image-description-webapp/internal/export"
	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// RenderReport re-renders a saved run report in the requested format.
func RenderReport(report Report, format string) error {
	switch format {
	case "text":
		return renderTextReport(report)
	case "json":
		return renderJSONReport(report)
	case "csv":
		return renderCSVReport(report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func renderTextReport(report Report) error {
	fmt.Println("========================================")
	fmt.Println("Image Analysis Run Report")
	fmt.Println("========================================")
	fmt.Printf("Model:     %s\n", report.Config.Model)
	fmt.Printf("Manifest:  %s\n", report.Config.Manifest)
	fmt.Printf("Timestamp: %s\n", report.Config.Timestamp)
	fmt.Printf("Latency:   %s\n", report.Config.Latency)
	fmt.Printf("Elapsed:   %s\n", report.Elapsed)
	fmt.Println()

	completed := 0
	failed := 0
	for _, result := range report.Results {
		if result.Status == string(models.StatusError) {
			failed++
		} else {
			completed++
		}
	}
	fmt.Printf("Images:    %d (%d completed, %d failed)\n", len(report.Results), completed, failed)

	fmt.Println("\nResults:")
	fmt.Println("========================================")

	for i, result := range report.Results {
		fmt.Printf("\n[%d] %s\n", i+1, result.Filename)
		fmt.Printf("  Status:      %s\n", result.Status)
		fmt.Printf("  Title:       %s\n", result.Title)
		if result.Description != "" {
			fmt.Printf("  Description: %s\n", result.Description)
		}
		fmt.Printf("  Keywords:    %s\n", result.Keywords)
	}

	return nil
}

func renderJSONReport(report Report) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// renderCSVReport rebuilds the CSV artifact from the report's results, so a
// lost or overwritten export can be recovered from the YAML alone.
func renderCSVReport(report Report) error {
	results := make([]models.AnalysisResult, 0, len(report.Results))
	for _, result := range report.Results {
		results = append(results, models.AnalysisResult{
			Filename:    result.Filename,
			Title:       result.Title,
			Description: result.Description,
			Keywords:    result.Keywords,
			Status:      models.ResultStatus(result.Status),
		})
	}

	artifact, ok := export.BuildCSV(results, report.Config.IncludeDescription)
	if !ok {
		return fmt.Errorf("report contains no results")
	}

	_, err := os.Stdout.Write(artifact.Data)
	return err
}
