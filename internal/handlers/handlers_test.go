package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pr-poehali-dev/image-description-webapp/internal/analysis"
	"github.com/pr-poehali-dev/image-description-webapp/internal/config"
	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

type testFile struct {
	name string
	mime string
	data []byte
}

func newTestServer(t *testing.T, latency time.Duration) (*Handler, *httptest.Server) {
	t.Helper()
	cfg := config.Config{
		Port:            "0",
		UploadsDir:      t.TempDir(),
		StaticDir:       t.TempDir(),
		AnalysisLatency: latency,
		MaxUploadBytes:  10 * 1024 * 1024,
	}
	h, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to build handler: %v", err)
	}
	srv := httptest.NewServer(h.Mux())
	t.Cleanup(srv.Close)
	return h, srv
}

func uploadFiles(t *testing.T, srv *httptest.Server, files []testFile) []models.ImageRecord {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, f.name))
		if f.mime != "" {
			header.Set("Content-Type", f.mime)
		}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create multipart part: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("Failed to write multipart part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/images", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("Upload request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected upload status 200, got %d: %s", resp.StatusCode, payload)
	}

	var result struct {
		Records []models.ImageRecord `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return result.Records
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func waitForResults(t *testing.T, srv *httptest.Server, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/api/analyze/status")
		if err != nil {
			t.Fatalf("Status request failed: %v", err)
		}
		var status struct {
			Processing bool `json:"processing"`
			Results    int  `json:"results"`
		}
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("Failed to decode status: %v", err)
		}
		if !status.Processing && status.Results == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d results", want)
}

func TestUploadAssignsPreviewsAndSizeLabels(t *testing.T) {
	_, srv := newTestServer(t, 0)

	records := uploadFiles(t, srv, []testFile{
		{name: "a.jpg", mime: "image/jpeg", data: bytes.Repeat([]byte{0xab}, 2097152)},
		{name: "b.txt", mime: "text/plain", data: []byte("not an image")},
	})

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].PreviewURI == "" {
		t.Error("Expected a preview for the image upload")
	}
	if !strings.HasPrefix(records[0].PreviewURI, "/static/previews/") {
		t.Errorf("Expected preview under /static/previews/, got %s", records[0].PreviewURI)
	}
	if records[0].SizeLabel != "2.00 MB" {
		t.Errorf("Expected size label 2.00 MB, got %s", records[0].SizeLabel)
	}
	if records[1].PreviewURI != "" {
		t.Errorf("Expected no preview for text upload, got %s", records[1].PreviewURI)
	}

	resp, err := http.Get(srv.URL + "/api/images")
	if err != nil {
		t.Fatalf("List request failed: %v", err)
	}
	defer resp.Body.Close()

	var listed []models.ImageRecord
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("Failed to decode collection: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("Expected 2 listed records, got %d", len(listed))
	}
	if listed[0].DisplayName != "a.jpg" || listed[1].DisplayName != "b.txt" {
		t.Errorf("Expected stored order [a.jpg b.txt], got [%s %s]", listed[0].DisplayName, listed[1].DisplayName)
	}
}

func TestUploadWithoutFilesFails(t *testing.T) {
	_, srv := newTestServer(t, 0)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("note", "no files here"); err != nil {
		t.Fatalf("Failed to write form field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	resp, err := http.Post(srv.URL+"/api/images", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("Upload request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestAnalyzeEndToEndWithCSVExport(t *testing.T) {
	_, srv := newTestServer(t, 0)

	uploadFiles(t, srv, []testFile{
		{name: "sunset.jpg", mime: "image/jpeg", data: []byte("jpegdata")},
	})

	resp := postJSON(t, srv.URL+"/api/analyze", models.SessionConfig{
		APIKey:             "sk-test",
		IncludeDescription: true,
	})
	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("Expected status 202, got %d: %s", resp.StatusCode, payload)
	}
	resp.Body.Close()

	waitForResults(t, srv, 1)

	resp, err := http.Get(srv.URL + "/api/results")
	if err != nil {
		t.Fatalf("Results request failed: %v", err)
	}
	var results []models.AnalysisResult
	err = json.NewDecoder(resp.Body).Decode(&results)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to decode results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Description == "" {
		t.Error("Expected non-empty description")
	}
	if results[0].Status != models.StatusCompleted {
		t.Errorf("Expected completed status, got %s", results[0].Status)
	}

	resp, err = http.Get(srv.URL + "/api/export/csv")
	if err != nil {
		t.Fatalf("CSV request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected CSV status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected Content-Type text/csv, got %s", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "image_analysis_results.csv") {
		t.Errorf("Expected attachment filename in disposition, got %s", cd)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read CSV body: %v", err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 CSV lines, got %d", len(lines))
	}
	if lines[0] != "filename,title,descriptors,keywords" {
		t.Errorf("Unexpected CSV header: %q", lines[0])
	}
	row := lines[1]
	if !strings.HasPrefix(row, `"`) || !strings.HasSuffix(row, `"`) {
		t.Errorf("Expected quote-wrapped row, got %q", row)
	}
	if got := strings.Count(row, `","`); got != 3 {
		t.Errorf("Expected 4 quoted fields (3 separators), got %d in %q", got+1, row)
	}
}

func TestAnalyzePreconditionAlerts(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		_, srv := newTestServer(t, 0)
		uploadFiles(t, srv, []testFile{{name: "a.jpg", mime: "image/jpeg", data: []byte("x")}})

		resp := postJSON(t, srv.URL+"/api/analyze", models.SessionConfig{APIKey: "   "})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", resp.StatusCode)
		}

		var payload map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode alert: %v", err)
		}
		if payload["alert"] == "" {
			t.Error("Expected an alert message")
		}
	})

	t.Run("no images", func(t *testing.T) {
		_, srv := newTestServer(t, 0)

		resp := postJSON(t, srv.URL+"/api/analyze", models.SessionConfig{APIKey: "sk-test"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("run already active", func(t *testing.T) {
		_, srv := newTestServer(t, 250*time.Millisecond)
		uploadFiles(t, srv, []testFile{{name: "a.jpg", mime: "image/jpeg", data: []byte("x")}})

		cfg := models.SessionConfig{APIKey: "sk-test"}
		first := postJSON(t, srv.URL+"/api/analyze", cfg)
		first.Body.Close()
		if first.StatusCode != http.StatusAccepted {
			t.Fatalf("Expected first start 202, got %d", first.StatusCode)
		}

		second := postJSON(t, srv.URL+"/api/analyze", cfg)
		second.Body.Close()
		if second.StatusCode != http.StatusConflict {
			t.Errorf("Expected second start 409, got %d", second.StatusCode)
		}

		waitForResults(t, srv, 1)
	})
}

func TestExportCSVWithoutResults(t *testing.T) {
	_, srv := newTestServer(t, 0)

	resp, err := http.Get(srv.URL + "/api/export/csv")
	if err != nil {
		t.Fatalf("CSV request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", resp.StatusCode)
	}
}

func TestExportSheetsStub(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{name: "missing url", url: "", wantStatus: http.StatusBadRequest},
		{name: "unimplemented", url: "https://sheets.example/doc", wantStatus: http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newTestServer(t, 0)

			resp := postJSON(t, srv.URL+"/api/export/sheets", map[string]string{"sheets_url": tt.url})
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			var payload map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				t.Fatalf("Failed to decode alert: %v", err)
			}
			if payload["alert"] == "" {
				t.Error("Expected an alert message")
			}
		})
	}
}

func TestRemoveAndClearReleaseStoredUploads(t *testing.T) {
	h, srv := newTestServer(t, 0)

	records := uploadFiles(t, srv, []testFile{
		{name: "a.jpg", mime: "image/jpeg", data: []byte("a")},
		{name: "b.jpg", mime: "image/jpeg", data: []byte("b")},
	})

	entries, err := os.ReadDir(h.cfg.UploadsDir)
	if err != nil {
		t.Fatalf("Failed to read uploads dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 stored uploads, got %d", len(entries))
	}

	req, err := http.NewRequest("DELETE", srv.URL+"/api/images/"+records[0].ID, nil)
	if err != nil {
		t.Fatalf("Failed to build delete request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Delete request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected delete status 204, got %d", resp.StatusCode)
	}

	entries, err = os.ReadDir(h.cfg.UploadsDir)
	if err != nil {
		t.Fatalf("Failed to read uploads dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 stored upload after remove, got %d", len(entries))
	}

	req, err = http.NewRequest("DELETE", srv.URL+"/api/images/does-not-exist", nil)
	if err != nil {
		t.Fatalf("Failed to build delete request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Delete request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected unknown id status 404, got %d", resp.StatusCode)
	}

	req, err = http.NewRequest("DELETE", srv.URL+"/api/images", nil)
	if err != nil {
		t.Fatalf("Failed to build clear request: %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Clear request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected clear status 204, got %d", resp.StatusCode)
	}

	entries, err = os.ReadDir(h.cfg.UploadsDir)
	if err != nil {
		t.Fatalf("Failed to read uploads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected empty uploads dir after clear, got %d entries", len(entries))
	}
}

func TestCloseReleasesSessionUploads(t *testing.T) {
	h, srv := newTestServer(t, 0)

	uploadFiles(t, srv, []testFile{
		{name: "a.jpg", mime: "image/jpeg", data: []byte("a")},
		{name: "b.png", mime: "image/png", data: []byte("b")},
	})

	h.Close()

	entries, err := os.ReadDir(h.cfg.UploadsDir)
	if err != nil {
		t.Fatalf("Failed to read uploads dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected uploads released on close, found %d entries", len(entries))
	}
	if h.store.Len() != 0 {
		t.Errorf("Expected empty collection after close, got %d records", h.store.Len())
	}
}

func TestProgressWebsocketStreamsRun(t *testing.T) {
	_, srv := newTestServer(t, 20*time.Millisecond)

	uploadFiles(t, srv, []testFile{
		{name: "a.jpg", mime: "image/jpeg", data: []byte("a")},
		{name: "b.jpg", mime: "image/jpeg", data: []byte("b")},
	})

	wsURL := strings.Replace(srv.URL, "http", "ws", 1) + "/api/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Websocket dial failed: %v", err)
	}
	defer conn.Close()
	if err := conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var snapshot analysis.Progress
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("Failed to read initial snapshot: %v", err)
	}
	if snapshot.Processing {
		t.Error("Expected idle snapshot before the run starts")
	}

	resp := postJSON(t, srv.URL+"/api/analyze", models.SessionConfig{APIKey: "sk-test"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected status 202, got %d", resp.StatusCode)
	}

	var percents []float64
	for {
		var progress analysis.Progress
		if err := conn.ReadJSON(&progress); err != nil {
			t.Fatalf("Failed to read progress event: %v", err)
		}
		percents = append(percents, progress.Percent)
		if !progress.Processing {
			if progress.Percent != 100 {
				t.Errorf("Expected final percent 100, got %.0f", progress.Percent)
			}
			break
		}
	}

	if len(percents) != 3 {
		t.Fatalf("Expected 3 progress events, got %d: %v", len(percents), percents)
	}
	if percents[0] != 0 || percents[1] != 50 {
		t.Errorf("Expected percents [0 50 100], got %v", percents)
	}
}

func TestStaticServesIndexAndPreviews(t *testing.T) {
	h, srv := newTestServer(t, 0)

	index := []byte("<html><body>image describer</body></html>")
	if err := os.WriteFile(h.cfg.StaticDir+"/index.html", index, 0644); err != nil {
		t.Fatalf("Failed to write index fixture: %v", err)
	}

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("Index request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected index status 200, got %d", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte("image describer")) {
		t.Error("Expected index.html content")
	}

	records := uploadFiles(t, srv, []testFile{
		{name: "logo.png", mime: "image/png", data: []byte("pngbytes")},
	})
	if records[0].PreviewURI == "" {
		t.Fatal("Expected a preview URI")
	}

	resp, err = http.Get(srv.URL + records[0].PreviewURI)
	if err != nil {
		t.Fatalf("Preview request failed: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected preview status 200, got %d", resp.StatusCode)
	}
	if !bytes.Equal(body, []byte("pngbytes")) {
		t.Errorf("Expected preview bytes to round-trip, got %q", body)
	}

	resp, err = http.Get(srv.URL + "/healthcheck")
	if err != nil {
		t.Fatalf("Healthcheck request failed: %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "OK" {
		t.Errorf("Expected healthcheck OK, got %q", body)
	}
}
