package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/reqhash/internal/model"
)

// Store provides SQLite-based caching of index probe results and artifact
// digests. Caching is opt-in: without a Store every run probes the indexes
// and hashes artifacts from scratch.
//
// Design decision: probe results and digests live in one database file per
// cache directory rather than one file per index. Cross-index queries stay
// cheap and a single file is easy to wipe.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default cache options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a cache store in the specified directory.
func Open(dir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dir, "reqhash.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("cache not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check cache path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the cache schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Probe results record whether an index hosts a package
	CREATE TABLE IF NOT EXISTS probes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		index_url TEXT NOT NULL,
		package TEXT NOT NULL,
		found INTEGER NOT NULL,
		checked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(index_url, package)
	);

	CREATE INDEX IF NOT EXISTS idx_probes_package ON probes(package);

	-- Digests record integrity hashes per artifact and algorithm
	CREATE TABLE IF NOT EXISTS digests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		index_url TEXT NOT NULL,
		package TEXT NOT NULL,
		filename TEXT NOT NULL,
		algorithm TEXT NOT NULL,
		digest TEXT NOT NULL,
		checked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(index_url, package, filename, algorithm)
	);

	CREATE INDEX IF NOT EXISTS idx_digests_package ON digests(package);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// PutProbe records whether an index hosts a package. Existing entries for
// the same index and package are replaced with a fresh timestamp.
func (s *Store) PutProbe(ctx context.Context, indexURL, pkg string, found bool) error {
	query := `
	INSERT INTO probes (index_url, package, found)
	VALUES (?, ?, ?)
	ON CONFLICT(index_url, package) DO UPDATE SET
		found = excluded.found,
		checked_at = CURRENT_TIMESTAMP
	`

	foundInt := 0
	if found {
		foundInt = 1
	}

	if _, err := s.db.ExecContext(ctx, query, indexURL, pkg, foundInt); err != nil {
		return fmt.Errorf("failed to store probe result: %w", err)
	}
	return nil
}

// GetProbe returns a cached probe result no older than ttl. The second
// return value reports whether a fresh entry existed.
func (s *Store) GetProbe(ctx context.Context, indexURL, pkg string, ttl time.Duration) (bool, bool, error) {
	query := `
	SELECT found FROM probes
	WHERE index_url = ? AND package = ? AND checked_at > datetime('now', ?)
	`

	modifier := fmt.Sprintf("-%d seconds", int(ttl.Seconds()))

	var found int
	err := s.db.QueryRowContext(ctx, query, indexURL, pkg, modifier).Scan(&found)
	if err == sql.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to query probe result: %w", err)
	}

	return found == 1, true, nil
}

// PutDigests stores the hash entries computed for a package on an index.
func (s *Store) PutDigests(ctx context.Context, indexURL, pkg string, entries []model.HashEntry) error {
	query := `
	INSERT INTO digests (index_url, package, filename, algorithm, digest)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(index_url, package, filename, algorithm) DO UPDATE SET
		digest = excluded.digest,
		checked_at = CURRENT_TIMESTAMP
	`

	for _, e := range entries {
		if _, err := s.db.ExecContext(ctx, query, indexURL, pkg, e.Filename, e.Algorithm, e.Digest); err != nil {
			return fmt.Errorf("failed to store digest for %s: %w", e.Filename, err)
		}
	}
	return nil
}

// GetDigests returns cached hash entries for a package, index, and algorithm
// no older than ttl. A nil slice means no fresh entries exist.
func (s *Store) GetDigests(ctx context.Context, indexURL, pkg, algorithm string, ttl time.Duration) ([]model.HashEntry, error) {
	query := `
	SELECT filename, algorithm, digest FROM digests
	WHERE index_url = ? AND package = ? AND algorithm = ? AND checked_at > datetime('now', ?)
	ORDER BY filename
	`

	modifier := fmt.Sprintf("-%d seconds", int(ttl.Seconds()))

	rows, err := s.db.QueryContext(ctx, query, indexURL, pkg, algorithm, modifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query digests: %w", err)
	}
	defer rows.Close()

	var entries []model.HashEntry
	for rows.Next() {
		var e model.HashEntry
		if err := rows.Scan(&e.Filename, &e.Algorithm, &e.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Purge removes all entries older than ttl.
func (s *Store) Purge(ctx context.Context, ttl time.Duration) error {
	modifier := fmt.Sprintf("-%d seconds", int(ttl.Seconds()))

	for _, table := range []string{"probes", "digests"} {
		query := fmt.Sprintf("DELETE FROM %s WHERE checked_at <= datetime('now', ?)", table)
		if _, err := s.db.ExecContext(ctx, query, modifier); err != nil {
			return fmt.Errorf("failed to purge %s: %w", table, err)
		}
	}
	return nil
}
