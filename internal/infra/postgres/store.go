// Package postgres implements the ledger and notification stores on
// PostgreSQL through a pgx connection pool. It mirrors the SQLite schema
// and is selected with `[storage] driver = "postgres"`.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/genyouth/wellness/internal/domain"
)

// Store is a pgxpool-backed domain.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, tunes the pool and runs migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ledgers (
			user_id              TEXT PRIMARY KEY,
			points               BIGINT NOT NULL DEFAULT 0,
			streak_current       INTEGER NOT NULL DEFAULT 0,
			streak_longest       INTEGER NOT NULL DEFAULT 0,
			streak_last_date     DATE,
			activities           BIGINT NOT NULL DEFAULT 0,
			activity_minutes     BIGINT NOT NULL DEFAULT 0,
			challenges_completed BIGINT NOT NULL DEFAULT 0,
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS achievement_unlocks (
			user_id        TEXT NOT NULL REFERENCES ledgers(user_id) ON DELETE CASCADE,
			achievement_id TEXT NOT NULL,
			unlocked_at    TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, achievement_id)
		)`,
		`CREATE TABLE IF NOT EXISTS milestone_unlocks (
			user_id      TEXT NOT NULL REFERENCES ledgers(user_id) ON DELETE CASCADE,
			milestone_id TEXT NOT NULL,
			unlocked_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, milestone_id)
		)`,
		`CREATE TABLE IF NOT EXISTS challenge_progress (
			user_id      TEXT NOT NULL REFERENCES ledgers(user_id) ON DELETE CASCADE,
			challenge_id TEXT NOT NULL,
			period_key   TEXT NOT NULL,
			progress     INTEGER NOT NULL DEFAULT 0,
			completed    BOOLEAN NOT NULL DEFAULT FALSE,
			completed_at TIMESTAMPTZ,
			PRIMARY KEY (user_id, challenge_id)
		)`,
		`CREATE TABLE IF NOT EXISTS point_events (
			id         UUID PRIMARY KEY,
			user_id    TEXT NOT NULL,
			amount     BIGINT NOT NULL,
			source     TEXT NOT NULL,
			ref_id     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_point_events_user ON point_events(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			ref_id     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			shown      BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS device_tokens (
			user_id       TEXT NOT NULL,
			token         TEXT NOT NULL,
			platform      TEXT NOT NULL DEFAULT '',
			registered_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, token)
		)`,
		`CREATE TABLE IF NOT EXISTS check_ins (
			id         BIGSERIAL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			tag        TEXT NOT NULL DEFAULT '',
			mood       SMALLINT NOT NULL,
			energy     SMALLINT NOT NULL,
			stress     SMALLINT NOT NULL,
			sleep      SMALLINT NOT NULL DEFAULT 0,
			note       TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_check_ins_user ON check_ins(user_id, created_at)`,
	}
	for _, m := range migrations {
		if _, err := s.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Ledger Snapshots ───────────────────────────────────────────────────────

// LoadLedger reads a user's snapshot. found is false if the user has none.
func (s *Store) LoadLedger(ctx context.Context, userID string) (domain.Snapshot, bool, error) {
	var snap domain.Snapshot
	var lastDate *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT points, streak_current, streak_longest, streak_last_date,
		        activities, activity_minutes, challenges_completed
		 FROM ledgers WHERE user_id = $1`, userID,
	).Scan(&snap.Points, &snap.Streak.Current, &snap.Streak.Longest, &lastDate,
		&snap.Activities, &snap.ActivityMinutes, &snap.ChallengesCompleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load ledger: %w", err)
	}
	if lastDate != nil {
		y, m, d := lastDate.Date()
		snap.Streak.LastDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT achievement_id, unlocked_at FROM achievement_unlocks WHERE user_id = $1 ORDER BY unlocked_at`, userID)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load achievements: %w", err)
	}
	snap.Achievements, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.AchievementState, error) {
		a := domain.AchievementState{Unlocked: true}
		err := r.Scan(&a.ID, &a.UnlockedAt)
		a.UnlockedAt = a.UnlockedAt.UTC()
		return a, err
	})
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load achievements: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT milestone_id, unlocked_at FROM milestone_unlocks WHERE user_id = $1 ORDER BY unlocked_at`, userID)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load milestones: %w", err)
	}
	snap.Milestones, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.MilestoneState, error) {
		m := domain.MilestoneState{Unlocked: true}
		err := r.Scan(&m.ID, &m.UnlockedAt)
		m.UnlockedAt = m.UnlockedAt.UTC()
		return m, err
	})
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load milestones: %w", err)
	}

	rows, err = s.pool.Query(ctx,
		`SELECT challenge_id, period_key, progress, completed, completed_at
		 FROM challenge_progress WHERE user_id = $1`, userID)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load challenges: %w", err)
	}
	snap.Challenges, err = pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ChallengeState, error) {
		var c domain.ChallengeState
		var completedAt *time.Time
		if err := r.Scan(&c.ID, &c.PeriodKey, &c.Progress, &c.Completed, &completedAt); err != nil {
			return c, err
		}
		if completedAt != nil {
			c.CompletedAt = completedAt.UTC()
		}
		return c, nil
	})
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load challenges: %w", err)
	}
	return snap, true, nil
}

// SaveLedger writes the snapshot and appends awards in one transaction.
func (s *Store) SaveLedger(ctx context.Context, userID string, snap domain.Snapshot, awards []domain.PointAward) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var lastDate *time.Time
	if !snap.Streak.LastDate.IsZero() {
		d := snap.Streak.LastDate
		lastDate = &d
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO ledgers (user_id, points, streak_current, streak_longest, streak_last_date,
		                      activities, activity_minutes, challenges_completed, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 ON CONFLICT (user_id) DO UPDATE SET
			points = EXCLUDED.points,
			streak_current = EXCLUDED.streak_current,
			streak_longest = EXCLUDED.streak_longest,
			streak_last_date = EXCLUDED.streak_last_date,
			activities = EXCLUDED.activities,
			activity_minutes = EXCLUDED.activity_minutes,
			challenges_completed = EXCLUDED.challenges_completed,
			updated_at = now()`,
		userID, snap.Points, snap.Streak.Current, snap.Streak.Longest, lastDate,
		snap.Activities, snap.ActivityMinutes, snap.ChallengesCompleted,
	); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range snap.Achievements {
		if a.Unlocked {
			batch.Queue(`INSERT INTO achievement_unlocks (user_id, achievement_id, unlocked_at)
				VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, userID, a.ID, a.UnlockedAt)
		}
	}
	for _, m := range snap.Milestones {
		if m.Unlocked {
			batch.Queue(`INSERT INTO milestone_unlocks (user_id, milestone_id, unlocked_at)
				VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, userID, m.ID, m.UnlockedAt)
		}
	}
	for _, c := range snap.Challenges {
		var completedAt *time.Time
		if !c.CompletedAt.IsZero() {
			at := c.CompletedAt
			completedAt = &at
		}
		batch.Queue(`INSERT INTO challenge_progress (user_id, challenge_id, period_key, progress, completed, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, challenge_id) DO UPDATE SET
				period_key = EXCLUDED.period_key,
				progress = EXCLUDED.progress,
				completed = EXCLUDED.completed,
				completed_at = EXCLUDED.completed_at`,
			userID, c.ID, c.PeriodKey, c.Progress, c.Completed, completedAt)
	}
	for _, aw := range awards {
		batch.Queue(`INSERT INTO point_events (id, user_id, amount, source, ref_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), userID, aw.Amount, aw.Source, aw.RefID, aw.At)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save ledger rows: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListPointEvents returns a user's point events, newest first.
func (s *Store) ListPointEvents(ctx context.Context, userID string, limit int) ([]domain.PointEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, amount, source, ref_id, created_at
		 FROM point_events WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list point events: %w", err)
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.PointEvent, error) {
		var e domain.PointEvent
		var id uuid.UUID
		err := r.Scan(&id, &e.UserID, &e.Amount, &e.Source, &e.RefID, &e.At)
		e.ID = id.String()
		e.At = e.At.UTC()
		return e, err
	})
}

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a new notification.
func (s *Store) InsertNotification(ctx context.Context, n domain.Notification) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notifications (user_id, type, title, body, ref_id, created_at, shown)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		n.UserID, string(n.Type), n.Title, n.Body, n.RefID, n.CreatedAt, n.Shown,
	).Scan(&id)
	return id, err
}

// CountNotificationsSince counts a user's notifications created at or after since.
func (s *Store) CountNotificationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND created_at >= $2`, userID, since,
	).Scan(&count)
	return count, err
}

// ListPendingNotifications returns unshown notifications, newest first.
func (s *Store) ListPendingNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, type, title, body, ref_id, created_at, shown
		 FROM notifications WHERE user_id = $1 AND NOT shown
		 ORDER BY created_at DESC, id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Notification, error) {
		var n domain.Notification
		var typ string
		err := r.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Body, &n.RefID, &n.CreatedAt, &n.Shown)
		n.Type = domain.NotificationType(typ)
		n.CreatedAt = n.CreatedAt.UTC()
		return n, err
	})
}

// MarkNotificationShown marks a notification as shown.
func (s *Store) MarkNotificationShown(ctx context.Context, userID string, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET shown = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ─── Device Tokens ──────────────────────────────────────────────────────────

// UpsertDevice registers a push token, refreshing its platform and timestamp.
func (s *Store) UpsertDevice(ctx context.Context, d domain.Device) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO device_tokens (user_id, token, platform, registered_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, token) DO UPDATE SET
			platform = EXCLUDED.platform,
			registered_at = EXCLUDED.registered_at`,
		d.UserID, d.Token, d.Platform, d.RegisteredAt)
	return err
}

// ListDevices returns a user's push tokens, oldest registration first.
func (s *Store) ListDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, token, platform, registered_at
		 FROM device_tokens WHERE user_id = $1 ORDER BY registered_at`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Device, error) {
		var d domain.Device
		err := r.Scan(&d.UserID, &d.Token, &d.Platform, &d.RegisteredAt)
		d.RegisteredAt = d.RegisteredAt.UTC()
		return d, err
	})
}

// DeleteDevice removes a push token.
func (s *Store) DeleteDevice(ctx context.Context, userID, token string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	return err
}

// ─── Mood Check-ins ─────────────────────────────────────────────────────────

// InsertCheckIn stores a check-in and returns its id.
func (s *Store) InsertCheckIn(ctx context.Context, c domain.CheckIn) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO check_ins (user_id, tag, mood, energy, stress, sleep, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		c.UserID, string(c.Tag), c.Mood, c.Energy, c.Stress, c.Sleep, c.Note, c.CreatedAt,
	).Scan(&id)
	return id, err
}

// ListCheckIns returns check-ins created at or after since, oldest first.
func (s *Store) ListCheckIns(ctx context.Context, userID string, since time.Time) ([]domain.CheckIn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, tag, mood, energy, stress, sleep, note, created_at
		 FROM check_ins WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at, id`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return pgx.CollectRows(rows, scanCheckIn)
}

// LatestCheckIn returns the newest check-in.
func (s *Store) LatestCheckIn(ctx context.Context, userID string) (domain.CheckIn, bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, tag, mood, energy, stress, sleep, note, created_at
		 FROM check_ins WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	if err != nil {
		return domain.CheckIn{}, false, fmt.Errorf("latest check-in: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, scanCheckIn)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CheckIn{}, false, nil
	}
	if err != nil {
		return domain.CheckIn{}, false, fmt.Errorf("latest check-in: %w", err)
	}
	return c, true, nil
}

func scanCheckIn(r pgx.CollectableRow) (domain.CheckIn, error) {
	var c domain.CheckIn
	var tag string
	var mood, energy, stress, sleep int16
	err := r.Scan(&c.ID, &c.UserID, &tag, &mood, &energy, &stress, &sleep, &c.Note, &c.CreatedAt)
	c.Tag = domain.MoodTag(tag)
	c.Mood, c.Energy, c.Stress, c.Sleep = int(mood), int(energy), int(stress), int(sleep)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, err
}
