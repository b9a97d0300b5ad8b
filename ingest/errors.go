package ingest

import "fmt"

// DecodeError indicates the uploaded stream could not be decoded as UTF-8
// text (or its gzip envelope was corrupt)
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode error: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingColumnError indicates a required CSV column is absent. The whole
// upload is rejected; no partial insert survives.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// IngestionError indicates a row failed field conversion. Row is 1-based over
// the data rows (the header is row 0).
type IngestionError struct {
	Row   int
	Field string
	Err   error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("row %d: invalid value for %q: %v", e.Row, e.Field, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}
