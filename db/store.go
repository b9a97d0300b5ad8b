package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"

	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/mattn/go-sqlite3"
)

var dialect = goqu.Dialect("sqlite3")

// Store is the SQLite-backed store for ratings, movies and the upload ledger.
// Writes go through a single-connection handle opened with _txlock=immediate;
// reads use a small separate pool.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
	path    string
}

// NewStore opens the database at path and ensures the schema exists
func NewStore(path string, busyTimeoutMS int) (*Store, error) {
	isMemoryDB := strings.Contains(path, ":memory:")

	writeDSN := path
	if !isMemoryDB {
		writeDSN += dsnSeparator(writeDSN) + fmt.Sprintf("_journal_mode=WAL&_busy_timeout=%d&_txlock=immediate", busyTimeoutMS)
	}

	writeDB, err := sql.Open("sqlite3", writeDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open write database: %w", err)
	}
	writeDB.SetMaxOpenConns(1)
	writeDB.SetMaxIdleConns(1)
	writeDB.SetConnMaxLifetime(0)

	// An in-memory database is private to its connection; a separate read
	// pool would open empty databases with no tables. Reads share the
	// single write connection instead.
	readDB := writeDB
	if !isMemoryDB {
		readDSN := path + dsnSeparator(path) + fmt.Sprintf("_journal_mode=WAL&_busy_timeout=%d", busyTimeoutMS)

		readDB, err = sql.Open("sqlite3", readDSN)
		if err != nil {
			writeDB.Close()
			return nil, fmt.Errorf("failed to open read database: %w", err)
		}
		readDB.SetMaxOpenConns(4)
		readDB.SetMaxIdleConns(4)
		readDB.SetConnMaxLifetime(0)
	}

	if !isMemoryDB {
		for _, db := range []*sql.DB{writeDB, readDB} {
			for _, pragma := range []string{
				"PRAGMA journal_mode=WAL",
				"PRAGMA synchronous=NORMAL",
				"PRAGMA temp_store=MEMORY",
			} {
				if _, err := db.Exec(pragma); err != nil {
					writeDB.Close()
					readDB.Close()
					return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
				}
			}
		}
	}

	// Ensure schema; idempotent on every process start
	for _, schema := range Schemas() {
		if _, err := writeDB.Exec(schema); err != nil {
			writeDB.Close()
			readDB.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Info().Str("path", path).Msg("Database opened")

	return &Store{
		writeDB: writeDB,
		readDB:  readDB,
		path:    path,
	}, nil
}

func dsnSeparator(dsn string) string {
	if strings.Contains(dsn, "?") {
		return "&"
	}
	return "?"
}

// Close closes both database connections
func (s *Store) Close() error {
	var writeErr, readErr error
	if s.writeDB != nil {
		writeErr = s.writeDB.Close()
	}
	if s.readDB != nil && s.readDB != s.writeDB {
		readErr = s.readDB.Close()
	}
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// Ping verifies the read pool is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.readDB.PingContext(ctx)
}

// ClearAll wipes ratings, movies and the upload ledger in one transaction.
// Idempotent; succeeds on already-empty tables.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Op: "clear begin", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"ratings", "movies", "upload_info"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return &StorageError{Op: "clear " + table, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "clear commit", Err: err}
	}

	log.Info().Msg("All tables cleared")
	return nil
}
