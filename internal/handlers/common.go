package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pr-poehali-dev/image-description-webapp/internal/analysis"
	"github.com/pr-poehali-dev/image-description-webapp/internal/config"
	"github.com/pr-poehali-dev/image-description-webapp/internal/events"
	"github.com/pr-poehali-dev/image-description-webapp/internal/intake"
	"github.com/pr-poehali-dev/image-description-webapp/internal/storage"
)

// Handler owns the session state behind the HTTP surface: the intake
// service, the image collection, and the analysis workflow.
type Handler struct {
	cfg      config.Config
	intake   *intake.Service
	store    *storage.CollectionStore
	workflow *analysis.Workflow
	bus      *events.Bus

	// baseCtx outlives individual requests. Detached analysis runs bind to
	// it so they survive the request that triggered them and stop with the
	// server.
	baseCtx context.Context
}

func New(ctx context.Context, cfg config.Config) (*Handler, error) {
	svc, err := intake.NewService(cfg.UploadsDir)
	if err != nil {
		return nil, err
	}

	store := storage.New(svc.Release)
	bus := events.NewBus()
	workflow := analysis.NewWorkflow(store, analysis.NewSimulated(cfg.AnalysisLatency), bus)

	return &Handler{
		cfg:      cfg,
		intake:   svc,
		store:    store,
		workflow: workflow,
		bus:      bus,
		baseCtx:  ctx,
	}, nil
}

// Close tears the session down: the collection is cleared, which releases
// every stored upload through the eviction hook. Called on server shutdown
// so previews do not outlive the session.
func (h *Handler) Close() {
	if n := h.store.Len(); n > 0 {
		slog.Info("Releasing session uploads", "records", n)
	}
	h.store.Clear()
}

// Mux builds the route table for the web app.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/images", h.HandleImages)
	mux.HandleFunc("/api/images/", h.HandleImageDetail)
	mux.HandleFunc("/api/analyze", h.HandleAnalyze)
	mux.HandleFunc("/api/analyze/status", h.HandleAnalyzeStatus)
	mux.HandleFunc("/api/results", h.HandleResults)
	mux.HandleFunc("/api/export/csv", h.HandleExportCSV)
	mux.HandleFunc("/api/export/sheets", h.HandleExportSheets)
	mux.HandleFunc("/api/progress", h.HandleProgress)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleStatic)
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeAlert reports a user-facing validation failure the way the UI
// surfaces alert dialogs: a JSON body carrying the alert text.
func (h *Handler) writeAlert(w http.ResponseWriter, message string, code int) {
	h.writeJSONStatus(w, code, map[string]string{"alert": message})
}
