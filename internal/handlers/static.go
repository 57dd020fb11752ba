package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleStatic serves the single-page UI and its assets, plus uploaded
// image previews under /static/previews/.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")

	if strings.HasPrefix(path, "previews/") {
		h.servePreview(w, r, strings.TrimPrefix(path, "previews/"))
		return
	}

	if path == "" || path == "/" {
		path = "index.html"
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	// Set appropriate content type based on file extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, filepath.Join(h.cfg.StaticDir, path))
}

func (h *Handler) servePreview(w http.ResponseWriter, r *http.Request, name string) {
	full, ok := h.intake.PreviewPath(name)
	if !ok {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, full)
}
