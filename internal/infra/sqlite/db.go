// Package sqlite provides SQLite-based persistent storage for the wellness service.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return OpenFile(filepath.Join(dir, "state.db"))
}

// pragmas are applied by the driver to every new connection.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// OpenFile opens the database at an explicit path. A path that already
// carries query parameters keeps them.
func OpenFile(dbPath string) (*DB, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	dsn := dbPath + sep + pragmas

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// ─── Progression ledger ────────────────────────────────────────

		// One row per user: counters and streak.
		`CREATE TABLE IF NOT EXISTS ledgers (
			user_id              TEXT PRIMARY KEY,
			points               INTEGER NOT NULL DEFAULT 0,
			streak_current       INTEGER NOT NULL DEFAULT 0,
			streak_longest       INTEGER NOT NULL DEFAULT 0,
			streak_last_date     TEXT,
			activities           INTEGER NOT NULL DEFAULT 0,
			activity_minutes     INTEGER NOT NULL DEFAULT 0,
			challenges_completed INTEGER NOT NULL DEFAULT 0,
			updated_at           INTEGER NOT NULL
		)`,

		// Unlocks are one-way; rows are never updated or removed.
		`CREATE TABLE IF NOT EXISTS achievement_unlocks (
			user_id        TEXT NOT NULL REFERENCES ledgers(user_id) ON DELETE CASCADE,
			achievement_id TEXT NOT NULL,
			unlocked_at    INTEGER NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,
		`CREATE TABLE IF NOT EXISTS milestone_unlocks (
			user_id      TEXT NOT NULL REFERENCES ledgers(user_id) ON DELETE CASCADE,
			milestone_id TEXT NOT NULL,
			unlocked_at  INTEGER NOT NULL,
			PRIMARY KEY (user_id, milestone_id)
		)`,

		// Current-period progress per challenge
		`CREATE TABLE IF NOT EXISTS challenge_progress (
			user_id      TEXT NOT NULL REFERENCES ledgers(user_id) ON DELETE CASCADE,
			challenge_id TEXT NOT NULL,
			period_key   TEXT NOT NULL,
			progress     INTEGER NOT NULL DEFAULT 0,
			completed    BOOLEAN NOT NULL DEFAULT 0,
			completed_at INTEGER,
			PRIMARY KEY (user_id, challenge_id)
		)`,

		// Append-only audit of every balance increment
		`CREATE TABLE IF NOT EXISTS point_events (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			amount     INTEGER NOT NULL,
			source     TEXT NOT NULL,
			ref_id     TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_point_events_user ON point_events(user_id, created_at)`,

		// ─── Notifications ─────────────────────────────────────────────

		// Notification log (policy: max N/day, quiet hours)
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			ref_id     TEXT,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS device_tokens (
			user_id       TEXT NOT NULL,
			token         TEXT NOT NULL,
			platform      TEXT NOT NULL DEFAULT '',
			registered_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, token)
		)`,

		// ─── Mood check-ins ────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS check_ins (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			tag        TEXT NOT NULL DEFAULT '',
			mood       INTEGER NOT NULL,
			energy     INTEGER NOT NULL,
			stress     INTEGER NOT NULL,
			sleep      INTEGER NOT NULL DEFAULT 0,
			note       TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_check_ins_user ON check_ins(user_id, created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func fromNullUnix(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(n.Int64, 0).UTC()
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
