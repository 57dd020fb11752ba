package export

import (
	"errors"
	"strings"
)

var (
	ErrMissingSheetsURL     = errors.New("Google Sheets URL is required")
	ErrSheetsNotImplemented = errors.New("Google Sheets export is not implemented yet")
)

// ExportToSheets validates the destination URL and nothing more. The
// integration does not exist, so any non-empty URL reports
// ErrSheetsNotImplemented with no further observable action.
func ExportToSheets(url string) error {
	if strings.TrimSpace(url) == "" {
		return ErrMissingSheetsURL
	}
	return ErrSheetsNotImplemented
}
