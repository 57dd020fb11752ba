package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pr-poehali-dev/image-description-webapp/internal/export"
)

// HandleExportCSV streams the CSV artifact for the current results. With no
// results there is nothing to download and the response is 204.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	results, withDescription := h.store.Results()
	artifact, ok := export.BuildCSV(results, withDescription)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Error("Unable to write CSV export", "err", err)
		return
	}
	slog.Info("CSV export downloaded", "rows", len(results), "with_description", withDescription)
}

// HandleExportSheets is the Google Sheets path: URL validation plus a
// not-implemented report, nothing else.
func (h *Handler) HandleExportSheets(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SheetsURL string `json:"sheets_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	switch err := export.ExportToSheets(req.SheetsURL); {
	case errors.Is(err, export.ErrMissingSheetsURL):
		h.writeAlert(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, export.ErrSheetsNotImplemented):
		h.writeAlert(w, err.Error(), http.StatusNotImplemented)
	case err != nil:
		h.writeError(w, "Sheets export failed: "+err.Error(), http.StatusInternalServerError)
	default:
		h.writeJSON(w, map[string]string{"message": "Export complete"})
	}
}
