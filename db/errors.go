package db

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// StorageError wraps an underlying SQLite failure with the operation that hit it
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// PrimaryKeyCollisionError indicates a duplicate movieId within or across uploads.
// The whole batch is rolled back; rows from prior uploads stay intact.
type PrimaryKeyCollisionError struct {
	Err error
}

func (e *PrimaryKeyCollisionError) Error() string {
	return fmt.Sprintf("duplicate movieId: %v", e.Err)
}

func (e *PrimaryKeyCollisionError) Unwrap() error {
	return e.Err
}

// isPrimaryKeyConflict reports whether err is a SQLite PRIMARY KEY or UNIQUE
// constraint violation
func isPrimaryKeyConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
