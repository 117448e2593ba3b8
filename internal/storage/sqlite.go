package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database holding the key/value state blobs and the
// completed-workout log.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "fitfuel.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// One connection: the CLI and the server may share the file, and
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for tests and diagnostics.
func (s *Store) DB() *sql.DB {
	return s.db
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Key/value ---

// Get returns the value stored under key. ok is false when the key is absent.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC().Format(time.RFC3339),
	)
	return err
}

// SetMany stores every pair in one transaction: either all keys are written
// or none are.
func (s *Store) SetMany(kv map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC().Format(time.RFC3339)
	for k, v := range kv {
		if _, err := stmt.Exec(k, v, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("setting %q: %w", k, err)
		}
	}
	return tx.Commit()
}

// Delete removes key. Deleting a missing key returns ErrNotFound.
func (s *Store) Delete(key string) error {
	res, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// All returns every stored key/value pair.
func (s *Store) All() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM kv")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, rows.Err()
}

// --- Completed workouts ---

// AppendWorkout adds an entry to the completed-workout log. Entries are never
// updated in place.
func (s *Store) AppendWorkout(w CompletedWorkout) error {
	completedAt := w.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}
	goal := w.Goal
	if goal == "" {
		goal = "Balance"
	}
	_, err := s.db.Exec(`
		INSERT INTO completed_workouts (id, meal_text, goal, plan_json, completed_at)
		VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.MealText, goal, w.PlanJSON, completedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// GetWorkout returns a single log entry.
func (s *Store) GetWorkout(id string) (CompletedWorkout, error) {
	var w CompletedWorkout
	var completedAt string
	err := s.db.QueryRow(`
		SELECT id, meal_text, goal, plan_json, completed_at
		FROM completed_workouts WHERE id = ?`, id,
	).Scan(&w.ID, &w.MealText, &w.Goal, &w.PlanJSON, &completedAt)
	if err == sql.ErrNoRows {
		return CompletedWorkout{}, ErrNotFound
	}
	if err != nil {
		return CompletedWorkout{}, err
	}
	t, err := time.Parse(time.RFC3339, completedAt)
	if err != nil {
		return CompletedWorkout{}, fmt.Errorf("parsing completed_at: %w", err)
	}
	w.CompletedAt = t
	return w, nil
}

// ListWorkouts returns log entries oldest first, in insertion order.
func (s *Store) ListWorkouts(limit, offset int) ([]CompletedWorkout, error) {
	rows, err := s.db.Query(`
		SELECT id, meal_text, goal, plan_json, completed_at
		FROM completed_workouts ORDER BY completed_at ASC, rowid ASC LIMIT ? OFFSET ?`, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CompletedWorkout
	for rows.Next() {
		var w CompletedWorkout
		var completedAt string
		if err := rows.Scan(&w.ID, &w.MealText, &w.Goal, &w.PlanJSON, &completedAt); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, completedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		w.CompletedAt = t
		results = append(results, w)
	}
	return results, rows.Err()
}

// CountWorkouts returns the number of log entries.
func (s *Store) CountWorkouts() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM completed_workouts").Scan(&n)
	return n, err
}

// ClearWorkouts removes every log entry and returns how many were removed.
func (s *Store) ClearWorkouts() (int, error) {
	res, err := s.db.Exec("DELETE FROM completed_workouts")
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
