package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// record is a single CSV data row keyed by header column name
type record map[string]string

// parseRecords reads a header-first CSV document into string-keyed records and
// verifies every required column is present in the header before any row is
// converted.
func parseRecords(text string, required []string) ([]record, error) {
	reader := csv.NewReader(strings.NewReader(text))

	header, err := reader.Read()
	if err == io.EOF {
		// Empty file: no header, no rows
		return nil, nil
	}
	if err != nil {
		return nil, &IngestionError{Row: 0, Field: "header", Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	for _, column := range required {
		if _, ok := index[column]; !ok {
			return nil, &MissingColumnError{Column: column}
		}
	}

	var records []record
	for rowNum := 1; ; rowNum++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &IngestionError{Row: rowNum, Field: "row", Err: err}
		}

		rec := make(record, len(index))
		for name, i := range index {
			if i < len(fields) {
				rec[name] = fields[i]
			}
		}

		for _, column := range required {
			if _, ok := rec[column]; !ok {
				return nil, &MissingColumnError{Column: column}
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// intField converts a record field to int64 with a typed per-row error
func intField(rec record, rowNum int, name string) (int64, error) {
	raw := strings.TrimSpace(rec[name])
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &IngestionError{Row: rowNum, Field: name, Err: fmt.Errorf("%q is not an integer", raw)}
	}
	return v, nil
}

// floatField converts a record field to float64 with a typed per-row error
func floatField(rec record, rowNum int, name string) (float64, error) {
	raw := strings.TrimSpace(rec[name])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &IngestionError{Row: rowNum, Field: name, Err: fmt.Errorf("%q is not a number", raw)}
	}
	return v, nil
}
