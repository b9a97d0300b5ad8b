package db

import (
	"context"
	"database/sql"
	"errors"
)

// replaceLedger deletes any existing ledger row for kind and inserts a fresh one.
// Runs inside the caller's ingestion transaction so a failed upload never
// advances the ledger.
func replaceLedger(ctx context.Context, tx *sql.Tx, kind DatasetKind, filename string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM upload_info WHERE file_type = ?", string(kind)); err != nil {
		return err
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO upload_info (filename, file_type, upload_date) VALUES (?, ?, datetime('now'))",
		filename, string(kind))
	return err
}

// LatestFilename returns the filename from the most recently inserted ledger
// row of the given kind. ok is false when no upload of that kind exists.
// The ledger is status display only; a clear operation removes its rows too.
func (s *Store) LatestFilename(ctx context.Context, kind DatasetKind) (filename string, ok bool, err error) {
	row := s.readDB.QueryRowContext(ctx,
		"SELECT filename FROM upload_info WHERE file_type = ? ORDER BY id DESC LIMIT 1",
		string(kind))

	if err := row.Scan(&filename); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, &StorageError{Op: "ledger lookup", Err: err}
	}

	return filename, true, nil
}
