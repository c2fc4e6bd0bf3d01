package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store records evaluation runs: the program, every component evaluation
// and the answer sets. One Store holds one SQLite connection; WAL lets
// `hexeval history` read while a solve writes.
type Store struct {
	db *sql.DB
}

// pragmas are applied on every Open, in order.
var pragmas = []struct{ name, value string }{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
	{"foreign_keys", "ON"},
}

// migration upgrades a database from version-1 to version. schema.sql
// always describes the newest layout, so migrations only patch databases
// created by older builds.
type migration struct {
	version int
	name    string
	stmt    string
}

var migrations = []migration{
	{
		version: 1,
		name:    "run tables",
		// created by schema.sql
	},
	{
		version: 2,
		name:    "answer set lookup by run",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_answer_sets_run ON answer_sets(run_id, idx)`,
	},
}

// schemaVersion is the user_version of a fully migrated database.
var schemaVersion = migrations[len(migrations)-1].version

// Open opens the run history at path, creating it if needed. ":memory:"
// gives a private in-memory history. Opening an existing history upgrades
// it to the current schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run history %s: %w", path, err)
	}
	// one connection: a second one would see a different :memory: database
	// and SQLite serialises writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := setup(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open run history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func setup(db *sql.DB) error {
	if err := db.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("pragma %s: %w", p.name, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return migrate(db)
}

// migrate applies every migration newer than the database's user_version,
// each in its own transaction together with the version bump.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > schemaVersion {
		return fmt.Errorf("schema version %d is newer than this build (%d)", current, schemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if m.stmt != "" {
			if _, err := tx.Exec(m.stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// Close closes the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// verifyPragma checks that a pragma reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
