// Package store is cindex's data store: SQLite with sqlite-vec for
// vector search and FTS5 for keyword search, plus a standalone bleve
// index for documentation keyword matching. Vector and FTS virtual
// tables mirror only the primary key of their owning table; callers
// join back for full rows.
package store

import (
	"database/sql"
	"sync"

	sqlitevec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gianged/cindex/internal/cerrors"
)

var registerVecOnce sync.Once

// Store wraps the SQLite connection and the dimension the vector indexes
// were created with.
type Store struct {
	db         *sql.DB
	dimensions int
}

// Open connects to the sqlite database at path (or ":memory:"), enables
// foreign keys and WAL mode, and registers the sqlite-vec extension.
// If the schema doesn't exist yet it is created.
func Open(path string, dimensions int, maxConns int) (*Store, error) {
	registerVecOnce.Do(sqlitevec.Auto)

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, cerrors.Store(cerrors.CodeNotConnected, "open sqlite database", err, false)
	}
	db.SetMaxOpenConns(maxConns)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, cerrors.Store(cerrors.CodeNotConnected, "enable foreign keys", err, false)
	}

	s := &Store{db: db, dimensions: dimensions}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	var exists int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='repositories'",
	).Scan(&exists)
	if err != nil {
		return cerrors.Store(cerrors.CodeSchema, "probe schema", err, false)
	}
	if exists > 0 {
		return nil
	}
	if err := CreateSchema(s.db, s.dimensions); err != nil {
		return cerrors.Store(cerrors.CodeSchema, "create schema", err, false)
	}
	return nil
}

// DB exposes the underlying connection for packages that need raw access
// (e.g. documentation search wiring the bleve index alongside the store).
func (s *Store) DB() *sql.DB { return s.db }

// Dimensions returns the vector width the store was opened with.
func (s *Store) Dimensions() int { return s.dimensions }

// Close releases the underlying connection.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a transaction, committing on success and rolling
// back on any error. The indexing orchestrator's Stage 9 writer commits
// a whole repository generation through one WithTx call.
func (s *Store) WithTx(fn func(tx *sql.Tx) error) error {
	return s.withTx(fn)
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error or panic.
func (s *Store) withTx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return cerrors.Store(cerrors.CodeQuery, "begin transaction", err, true)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return cerrors.Store(cerrors.CodeQuery, "commit transaction", err, true)
	}
	return nil
}
