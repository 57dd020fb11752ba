package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pr-poehali-dev/image-description-webapp/internal/intake"
)

// HandleImages serves the image collection: POST uploads a batch, GET lists
// it in stored order, DELETE clears it along with any results.
func (h *Handler) HandleImages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "POST":
		h.handleUpload(w, r)
	case "GET":
		h.writeJSON(w, h.store.Images())
	case "DELETE":
		h.store.Clear()
		slog.Info("Collection cleared")
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No files in request", http.StatusBadRequest)
		return
	}

	files := make([]intake.File, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes))
		file.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if int64(len(data)) >= h.cfg.MaxUploadBytes {
			h.writeError(w, "File too large (max 10MB)", http.StatusBadRequest)
			return
		}

		files = append(files, intake.File{
			Name: header.Filename,
			MIME: header.Header.Get("Content-Type"),
			Data: data,
		})
	}

	records, err := h.intake.Ingest(files)
	if err != nil {
		h.writeError(w, "Failed to store upload: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.store.Append(records)

	h.writeJSON(w, map[string]any{
		"message": "Upload complete",
		"images":  len(records),
		"records": records,
	})
}

// HandleImageDetail removes a single image from the collection.
func (h *Handler) HandleImageDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/images/")
	if id == "" {
		h.writeError(w, "Image id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "DELETE":
		if !h.store.Remove(id) {
			h.writeError(w, "Image not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
