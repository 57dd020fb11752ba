package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pr-poehali-dev/image-description-webapp/internal/analysis"
	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// HandleAnalyze starts an analysis run from the submitted session config.
// Precondition failures surface as alert payloads before any state changes;
// a successful start returns immediately while the run continues in the
// background.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cfg models.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The run outlives this request, so it binds to the server context.
	err := h.workflow.Start(h.baseCtx, cfg)
	switch {
	case err == nil:
		h.writeJSONStatus(w, http.StatusAccepted, map[string]any{
			"message": "Analysis started",
			"images":  h.store.Len(),
		})
	case errors.Is(err, analysis.ErrAnalysisRunning):
		h.writeAlert(w, err.Error(), http.StatusConflict)
	case errors.Is(err, analysis.ErrMissingAPIKey), errors.Is(err, analysis.ErrNoImages):
		h.writeAlert(w, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, "Failed to start analysis: "+err.Error(), http.StatusInternalServerError)
	}
}

// HandleAnalyzeStatus reports the workflow state for pollers. The websocket
// at /api/progress carries the same data as a push stream.
func (h *Handler) HandleAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	progress := h.workflow.Status()
	results, _ := h.store.Results()
	h.writeJSON(w, map[string]any{
		"processing": progress.Processing,
		"percent":    progress.Percent,
		"completed":  progress.Completed,
		"total":      progress.Total,
		"results":    len(results),
	})
}

// HandleResults lists the results of the last completed run.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results, _ := h.store.Results()
	h.writeJSON(w, results)
}
