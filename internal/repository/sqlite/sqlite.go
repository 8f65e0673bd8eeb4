// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database - it lives inside the binary as a single file.
// The association runs one process on one machine, so there is no database
// server to install, configure, or manage. It is the default store; Mongo and
// Postgres are available for deployments that already run one of them.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code - no C compiler needed.
//
// The schema keeps the column names of the database the association already
// has on disk (users.hashed_password, doctors.contact_info, ...), so an
// existing medassoc.db opens without conversion.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...) works.
	_ "modernc.org/sqlite"

	"github.com/sakif/medassoc/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out the per-table repositories.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/medassoc.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
//
// ONE CONNECTION:
// The pool is limited to a single connection. SQLite serialises writers
// anyway, and with one connection the PRAGMAs below apply to every query and
// a ":memory:" database is the same database for every caller. Transactions
// (Update) hold the connection for their whole duration, which gives the
// read-modify-write atomicity the update contract asks for.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query - which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL (Write-Ahead Logging) lets readers in other processes (the seed
	// command, a backup) proceed while the server writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Wait for a lock held by another process instead of failing with SQLITE_BUSY.
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database file is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Credentials returns the users-table repository.
func (db *DB) Credentials() repository.CredentialRepository { return &CredentialDB{conn: db.conn} }

// Doctors returns the doctors-table repository.
func (db *DB) Doctors() repository.DoctorRepository { return &DoctorDB{conn: db.conn} }

// Events returns the events-table repository.
func (db *DB) Events() repository.EventRepository { return &EventDB{conn: db.conn} }

// migrate creates the schema. Every statement is idempotent, so this runs on
// every start ("ensure schema exists").
func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			username        TEXT UNIQUE,
			full_name       TEXT,
			hashed_password TEXT,
			disabled        BOOLEAN,
			created_at      TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	// Databases written by the old seed script have no users.created_at.
	if err := db.addColumnIfNotExists(ctx, "users", "created_at", "TIMESTAMP"); err != nil {
		return fmt.Errorf("adding created_at to users: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS doctors (
			id           TEXT PRIMARY KEY,
			name         TEXT,
			city         TEXT,
			specialty    TEXT,
			contact_info TEXT,
			image_url    TEXT,
			created_at   TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating doctors table: %w", err)
	}

	// Lowercased copies of the searchable columns. SQLite's LIKE and lower()
	// only fold ASCII, and city names here are things like "BELÉM".
	for _, col := range []string{"city_fold", "specialty_fold"} {
		if err := db.addColumnIfNotExists(ctx, "doctors", col, "TEXT"); err != nil {
			return fmt.Errorf("adding %s to doctors: %w", col, err)
		}
	}
	if err := db.backfillFoldColumns(ctx); err != nil {
		return fmt.Errorf("backfilling doctors search columns: %w", err)
	}

	_, err = db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS events (
			id            TEXT PRIMARY KEY,
			title         TEXT,
			date          TEXT,
			time          TEXT,
			location      TEXT,
			description   TEXT,
			image_url     TEXT,
			status        TEXT,
			external_link TEXT,
			created_at    TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
// Makes ALTER TABLE migrations idempotent - safe to run multiple times.
func (db *DB) addColumnIfNotExists(ctx context.Context, table, column, definition string) error {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.ExecContext(ctx, fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// backfillFoldColumns fills city_fold/specialty_fold for rows written before
// the columns existed (or by tools that do not know about them).
func (db *DB) backfillFoldColumns(ctx context.Context) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, COALESCE(city, ''), COALESCE(specialty, '')
		 FROM doctors WHERE city_fold IS NULL OR specialty_fold IS NULL`)
	if err != nil {
		return err
	}

	type pending struct{ id, city, specialty string }
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.city, &p.specialty); err != nil {
			rows.Close()
			return err
		}
		todo = append(todo, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	// The pool has a single connection: the cursor must be closed before
	// the UPDATEs can run.
	rows.Close()

	for _, p := range todo {
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE doctors SET city_fold = ?, specialty_fold = ? WHERE id = ?`,
			fold(p.city), fold(p.specialty), p.id,
		); err != nil {
			return err
		}
	}
	return nil
}

func fold(s string) string {
	return strings.ToLower(s)
}
