// Package storage is the engine's state store: a single SQLite database
// recording every container, image, network, volume, and advisory lock.
// It is the only component that touches the database file, and every
// exported method is safe for concurrent use by multiple processes.
package storage

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

// networkFilesystems are filesystem types that do not reliably support the
// shared-memory mmap SQLite's WAL mode depends on.
var networkFilesystems = map[string]bool{
	"nfs":  true,
	"cifs": true,
	"smb":  true,
	"9p":   true,
	"fuse": true,
}

// SQLiteStore is the sole Store implementation.
type SQLiteStore struct {
	db        *sql.DB
	log       zerolog.Logger
	lockHooks LockHooks
}

// Open opens or creates the state database at dataDir/state.db, selecting
// a journal mode appropriate to the underlying filesystem and applying the
// schema. The returned store is safe to share across goroutines.
func Open(dataDir string, log zerolog.Logger) (*SQLiteStore, error) {
	dbPath := filepath.Join(dataDir, "state.db")

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	journalMode := "WAL"
	if !supportsWAL(dbPath) {
		log.Warn().Str("path", dbPath).Msg("filesystem does not support WAL, falling back to DELETE journal mode")
		journalMode = "DELETE"
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = " + journalMode,
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}

	return &SQLiteStore{db: db, log: log.With().Str("component", "storage").Logger()}, nil
}

// OpenInMemory opens an in-memory database with the schema applied and no
// filesystem probing. Intended for tests.
func OpenInMemory(log zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("storage: open in-memory database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// supportsWAL shells out to stat(1) to read the filesystem type backing
// dbPath's parent directory. WAL mode requires mmap-backed shared memory,
// which network filesystems typically do not provide correctly.
func supportsWAL(dbPath string) bool {
	parent := filepath.Dir(dbPath)
	out, err := exec.Command("stat", "-f", "-c", "%T", parent).Output()
	if err != nil {
		return true
	}
	fstype := strings.TrimSpace(string(out))
	return !networkFilesystems[fstype]
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation reports whether err is a SQLite UNIQUE or CHECK
// constraint failure, without importing the driver's error type into
// callers.
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
