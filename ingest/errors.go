package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is returned when a spreadsheet has no header row.
var ErrEmptyFile = errors.New("spreadsheet file is empty")

// SchemaError reports every required column absent from the header row,
// not just the first one found missing.
type SchemaError struct {
	Required []string
	Missing  []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("spreadsheet must contain columns: %s; missing: %s",
		strings.Join(e.Required, ", "), strings.Join(e.Missing, ", "))
}
