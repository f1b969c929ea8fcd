package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/hkanojia/sheetsink/models"
)

// NormalizeRow converts one raw row into a Person using the resolved
// column positions. Malformed data degrades to defaults rather than
// failing the row: strings are trimmed (missing cells become ""), and
// age is parsed from any numeric-looking value truncated toward zero,
// falling back to 0.
func NormalizeRow(row []string, cols map[string]int) models.Person {
	return models.Person{
		Name:  strings.TrimSpace(cellAt(row, cols, "name")),
		Email: strings.TrimSpace(cellAt(row, cols, "email")),
		Age:   parseAge(cellAt(row, cols, "age")),
	}
}

// IsBlank reports the blank-row filter: empty name, empty email and zero
// age. Such rows are dropped before writing and never counted. A row
// whose fields are legitimately all defaults is indistinguishable from a
// formatting artifact and is dropped too.
func IsBlank(p models.Person) bool {
	return p.Name == "" && p.Email == "" && p.Age == 0
}

func cellAt(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseAge(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	// values beyond the storage INT range are as unusable as "forty";
	// an unguarded int(f) would also be implementation-defined here
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
