package models

import "time"

// ResultStatus tracks the lifecycle of a single analysis result.
type ResultStatus string

const (
	StatusPending    ResultStatus = "pending"
	StatusProcessing ResultStatus = "processing"
	StatusCompleted  ResultStatus = "completed"
	StatusError      ResultStatus = "error"
)

// Supported model labels. They select nothing but a label: the simulated
// analyzer behaves identically for all of them.
const (
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT4o     = "gpt-4o"
	ModelGPT5      = "gpt-5"
)

// DefaultModel is used when a session config leaves the model empty.
const DefaultModel = ModelGPT4oMini

// AllowedModels returns the model labels the UI offers.
func AllowedModels() []string {
	return []string{ModelGPT4oMini, ModelGPT4o, ModelGPT5}
}

// ImageRecord represents one uploaded file awaiting analysis.
// Records are immutable once created; they leave the collection only via
// remove or clear, which also releases the stored object.
type ImageRecord struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	SizeLabel   string    `json:"size_label"`
	MIMEType    string    `json:"mime_type"`
	StoredPath  string    `json:"-"`
	PreviewURI  string    `json:"preview_uri,omitempty"` // set only for image/* uploads
	UploadedAt  time.Time `json:"uploaded_at"`
}

// AnalysisResult is the synthesized output for one image record.
type AnalysisResult struct {
	Filename    string       `json:"filename"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"` // present iff the run enabled descriptions
	Keywords    string       `json:"keywords"`
	Status      ResultStatus `json:"status"`
}

// SessionConfig carries the per-run options the form submits. It lives for
// the UI session only and is never persisted.
type SessionConfig struct {
	APIKey             string `json:"api_key"`
	Model              string `json:"model"`
	UseFilenameContext bool   `json:"use_filename_context"`
	IncludeDescription bool   `json:"include_description"`
	SheetsURL          string `json:"sheets_url"`
}

// ModelOrDefault resolves the session's model label.
func (c SessionConfig) ModelOrDefault() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}
