package export

import (
	"strings"

	"github.com/pr-poehali-dev/image-description-webapp/internal/models"
)

// Artifact is a downloadable export payload.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

const (
	csvFilename = "image_analysis_results.csv"
	csvMIME     = "text/csv"
)

// BuildCSV serializes a result list into the CSV download artifact. The
// second return is false when there are no results, in which case no
// artifact exists.
//
// The byte format is contractual: the header row is written bare, every
// data field is wrapped in double quotes with no escaping of embedded
// quotes or commas, rows are joined with a single newline, and the
// description column keeps its historical "descriptors" header label.
func BuildCSV(results []models.AnalysisResult, includeDescription bool) (Artifact, bool) {
	if len(results) == 0 {
		return Artifact{}, false
	}

	header := "filename,title,keywords"
	if includeDescription {
		header = "filename,title,descriptors,keywords"
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, header)
	for _, result := range results {
		fields := []string{result.Filename, result.Title}
		if includeDescription {
			fields = append(fields, result.Description)
		}
		fields = append(fields, result.Keywords)
		lines = append(lines, quoteRow(fields))
	}

	return Artifact{
		Filename:    csvFilename,
		ContentType: csvMIME,
		Data:        []byte(strings.Join(lines, "\n")),
	}, true
}

func quoteRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + field + `"`
	}
	return strings.Join(quoted, ",")
}
