package simulate

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// ReportConfig is the configuration section of the run report. The API key
// stays out on purpose: it is a secret and never persisted.
type ReportConfig struct {
	Model              string `yaml:"model" json:"model"`
	IncludeDescription bool   `yaml:"includedescription" json:"include_description"`
	UseFilenameContext bool   `yaml:"usefilenamecontext" json:"use_filename_context"`
	Manifest           string `yaml:"manifest" json:"manifest"`
	Latency            string `yaml:"latency" json:"latency"`
	Timestamp          string `yaml:"timestamp" json:"timestamp"`
}

// ReportResult is one analyzed image in the run report.
type ReportResult struct {
	Filename    string `yaml:"filename" json:"filename"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords    string `yaml:"keywords" json:"keywords"`
	Status      string `yaml:"status" json:"status"`
}

// Report is the complete YAML run report.
type Report struct {
	Config  ReportConfig   `yaml:"config" json:"config"`
	Results []ReportResult `yaml:"results" json:"results"`
	Elapsed string         `yaml:"elapsed" json:"elapsed"`
}

// BuildReport assembles the report for a completed run.
func BuildReport(opts RunOptions, results []models.AnalysisResult, elapsed time.Duration) Report {
	report := Report{
		Config: ReportConfig{
			Model:              opts.Session.ModelOrDefault(),
			IncludeDescription: opts.Session.IncludeDescription,
			UseFilenameContext: opts.Session.UseFilenameContext,
			Manifest:           opts.ManifestPath,
			Latency:            opts.Latency.String(),
			Timestamp:          time.Now().Format("2006-01-02_15-04-05"),
		},
		Results: make([]ReportResult, 0, len(results)),
		Elapsed: elapsed.Round(time.Millisecond).String(),
	}

	for _, result := range results {
		report.Results = append(report.Results, ReportResult{
			Filename:    result.Filename,
			Title:       result.Title,
			Description: result.Description,
			Keywords:    result.Keywords,
			Status:      string(result.Status),
		})
	}

	return report
}

// SaveReport writes the report as YAML.
func SaveReport(path string, report Report) error {
	data, err := yaml.Marshal(&report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

// LoadReport reads a YAML run report back.
func LoadReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read report file: %w", err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("failed to parse report: %w", err)
	}

	return report, nil
}
