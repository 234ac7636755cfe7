package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"github.com/finshield/mlengine/internal/infra/features"
)

// readCSV parses a CSV file into row maps keyed by header, plus the raw
// header order (needed later to rebuild the scored output file).
func readCSV(path string) (rows []map[string]string, headers []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("dataset %s has no rows", path)
	}

	headers = records[0]
	rows = make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, headers, nil
}

// readSchema loads a JSON object mapping column name to its declared type
// (one of the features.ColumnType values) from path.
func readSchema(path string) (features.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	schema := make(features.Schema, len(raw))
	for col, t := range raw {
		schema[col] = features.ColumnType(t)
	}
	return schema, nil
}
