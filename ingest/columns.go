package ingest

import "strings"

// ResolveColumns maps the required semantic column names to their
// positions in the header row. Matching is case-insensitive and
// whitespace-trimmed; blank header cells take no place in the mapping.
// If any required column is absent the returned SchemaError names all of
// them.
func ResolveColumns(header []string, required []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if key == "" {
			continue
		}
		if _, ok := positions[key]; !ok {
			positions[key] = i
		}
	}

	colMap := make(map[string]int, len(required))
	var missing []string
	for _, col := range required {
		key := strings.ToLower(strings.TrimSpace(col))
		idx, ok := positions[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		colMap[key] = idx
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Required: required, Missing: missing}
	}
	return colMap, nil
}
