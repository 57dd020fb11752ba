package simulate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// ManifestEntry describes one file for a headless run. Payload is optional
// inline content; when absent, a zero-filled buffer of Size bytes stands in,
// which is enough since analysis synthesizes from the name alone.
type ManifestEntry struct {
	Name    string `json:"name" parquet:"name"`
	MIME    string `json:"mime" parquet:"mime"`
	Size    int64  `json:"size" parquet:"size"`
	Payload string `json:"payload" parquet:"payload"`
}

// Bytes materializes the entry's file content.
func (e ManifestEntry) Bytes() []byte {
	if e.Payload != "" {
		return []byte(e.Payload)
	}
	if e.Size > 0 {
		return make([]byte, e.Size)
	}
	return nil
}

// Loader reads intake manifests for the simulate command.
type Loader struct {
	manifestPath string
}

func NewLoader(manifestPath string) *Loader {
	return &Loader{manifestPath: manifestPath}
}

// Load reads entries from a manifest file (JSONL or Parquet).
func (l *Loader) Load() ([]ManifestEntry, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	switch ext {
	case ".parquet":
		return l.loadParquet()
	case ".jsonl", ".json":
		return l.loadJSONL()
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func (l *Loader) loadJSONL() ([]ManifestEntry, error) {
	slog.Debug("Opening JSONL manifest", "path", l.manifestPath)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var entries []ManifestEntry
	scanner := bufio.NewScanner(file)

	// Allow for large inline payloads
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var entry ManifestEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("Finished reading JSONL manifest", "entries", len(entries), "lines", lineNum)
	return entries, nil
}

func (l *Loader) loadParquet() ([]ManifestEntry, error) {
	slog.Debug("Opening Parquet manifest", "path", l.manifestPath)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet manifest: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ManifestEntry](pf)
	defer reader.Close()

	var entries []ManifestEntry
	rows := make([]ManifestEntry, 128)

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			entries = append(entries, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet manifest", "entries", len(entries))
	return entries, nil
}

// LoadSample loads a limited number of entries (useful for inspection)
func (l *Loader) LoadSample(limit int) ([]ManifestEntry, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	switch ext {
	case ".parquet":
		return l.loadParquetSample(limit)
	case ".jsonl", ".json":
		return l.loadJSONLSample(limit)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func (l *Loader) loadJSONLSample(limit int) ([]ManifestEntry, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var entries []ManifestEntry
	scanner := bufio.NewScanner(file)

	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() && len(entries) < limit {
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var entry ManifestEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			// Skip malformed lines but continue
			fmt.Fprintf(os.Stderr, "Warning: failed to parse JSON at line %d: %v\n", lineNum, err)
			continue
		}

		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	return entries, nil
}

func (l *Loader) loadParquetSample(limit int) ([]ManifestEntry, error) {
	slog.Debug("Opening Parquet manifest for sample", "path", l.manifestPath, "sample_limit", limit)

	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet manifest: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ManifestEntry](pf)
	defer reader.Close()

	var entries []ManifestEntry
	rows := make([]ManifestEntry, 128)

	for len(entries) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			remaining := limit - len(entries)
			if n > remaining {
				n = remaining
			}
			entries = append(entries, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	return entries, nil
}
