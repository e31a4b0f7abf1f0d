package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/genyouth/wellness/internal/domain"
)

// ─── Ledger Snapshots ───────────────────────────────────────────────────────

// LoadLedger reads a user's snapshot. found is false if the user has none.
func (d *DB) LoadLedger(ctx context.Context, userID string) (domain.Snapshot, bool, error) {
	var snap domain.Snapshot
	var lastDate sql.NullString
	err := d.db.QueryRowContext(ctx,
		`SELECT points, streak_current, streak_longest, streak_last_date,
		        activities, activity_minutes, challenges_completed
		 FROM ledgers WHERE user_id = ?`, userID,
	).Scan(&snap.Points, &snap.Streak.Current, &snap.Streak.Longest, &lastDate,
		&snap.Activities, &snap.ActivityMinutes, &snap.ChallengesCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load ledger: %w", err)
	}
	if lastDate.Valid {
		day, err := time.Parse(time.DateOnly, lastDate.String)
		if err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("load ledger: bad last date %q: %w", lastDate.String, err)
		}
		snap.Streak.LastDate = day
	}

	if snap.Achievements, err = d.loadUnlocks(ctx,
		`SELECT achievement_id, unlocked_at FROM achievement_unlocks WHERE user_id = ? ORDER BY unlocked_at`,
		userID, func(id string, at time.Time) domain.AchievementState {
			return domain.AchievementState{ID: id, Unlocked: true, UnlockedAt: at}
		}); err != nil {
		return domain.Snapshot{}, false, err
	}
	if snap.Milestones, err = d.loadMilestones(ctx, userID); err != nil {
		return domain.Snapshot{}, false, err
	}
	if snap.Challenges, err = d.loadChallenges(ctx, userID); err != nil {
		return domain.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (d *DB) loadUnlocks(ctx context.Context, query, userID string, build func(string, time.Time) domain.AchievementState) ([]domain.AchievementState, error) {
	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load unlocks: %w", err)
	}
	defer rows.Close()

	var out []domain.AchievementState
	for rows.Next() {
		var id string
		var at int64
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		out = append(out, build(id, time.Unix(at, 0).UTC()))
	}
	return out, rows.Err()
}

func (d *DB) loadMilestones(ctx context.Context, userID string) ([]domain.MilestoneState, error) {
	states, err := d.loadUnlocks(ctx,
		`SELECT milestone_id, unlocked_at FROM milestone_unlocks WHERE user_id = ? ORDER BY unlocked_at`,
		userID, func(id string, at time.Time) domain.AchievementState {
			return domain.AchievementState{ID: id, Unlocked: true, UnlockedAt: at}
		})
	if err != nil {
		return nil, err
	}
	out := make([]domain.MilestoneState, len(states))
	for i, s := range states {
		out[i] = domain.MilestoneState(s)
	}
	return out, nil
}

func (d *DB) loadChallenges(ctx context.Context, userID string) ([]domain.ChallengeState, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT challenge_id, period_key, progress, completed, completed_at
		 FROM challenge_progress WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("load challenges: %w", err)
	}
	defer rows.Close()

	var out []domain.ChallengeState
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanChallenge(s scanner) (domain.ChallengeState, error) {
	var c domain.ChallengeState
	var completedAt sql.NullInt64
	if err := s.Scan(&c.ID, &c.PeriodKey, &c.Progress, &c.Completed, &completedAt); err != nil {
		return c, err
	}
	c.CompletedAt = fromNullUnix(completedAt)
	return c, nil
}

// SaveLedger writes the snapshot and appends awards in one transaction.
func (d *DB) SaveLedger(ctx context.Context, userID string, snap domain.Snapshot, awards []domain.PointAward) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var lastDate sql.NullString
	if !snap.Streak.LastDate.IsZero() {
		lastDate = sql.NullString{String: snap.Streak.LastDate.Format(time.DateOnly), Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledgers (user_id, points, streak_current, streak_longest, streak_last_date,
		                      activities, activity_minutes, challenges_completed, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			points=excluded.points,
			streak_current=excluded.streak_current,
			streak_longest=excluded.streak_longest,
			streak_last_date=excluded.streak_last_date,
			activities=excluded.activities,
			activity_minutes=excluded.activity_minutes,
			challenges_completed=excluded.challenges_completed,
			updated_at=excluded.updated_at`,
		userID, snap.Points, snap.Streak.Current, snap.Streak.Longest, lastDate,
		snap.Activities, snap.ActivityMinutes, snap.ChallengesCompleted, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}

	for _, a := range snap.Achievements {
		if !a.Unlocked {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO achievement_unlocks (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)`,
			userID, a.ID, a.UnlockedAt.Unix(),
		); err != nil {
			return fmt.Errorf("save achievement %s: %w", a.ID, err)
		}
	}

	for _, m := range snap.Milestones {
		if !m.Unlocked {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO milestone_unlocks (user_id, milestone_id, unlocked_at) VALUES (?, ?, ?)`,
			userID, m.ID, m.UnlockedAt.Unix(),
		); err != nil {
			return fmt.Errorf("save milestone %s: %w", m.ID, err)
		}
	}

	for _, c := range snap.Challenges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO challenge_progress (user_id, challenge_id, period_key, progress, completed, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(user_id, challenge_id) DO UPDATE SET
				period_key=excluded.period_key,
				progress=excluded.progress,
				completed=excluded.completed,
				completed_at=excluded.completed_at`,
			userID, c.ID, c.PeriodKey, c.Progress, c.Completed, nullableUnix(c.CompletedAt),
		); err != nil {
			return fmt.Errorf("save challenge %s: %w", c.ID, err)
		}
	}

	for _, aw := range awards {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO point_events (id, user_id, amount, source, ref_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), userID, aw.Amount, aw.Source, nullStr(aw.RefID), aw.At.Unix(),
		); err != nil {
			return fmt.Errorf("save point event: %w", err)
		}
	}

	return tx.Commit()
}

// ─── Point History ──────────────────────────────────────────────────────────

// ListPointEvents returns a user's point events, newest first.
func (d *DB) ListPointEvents(ctx context.Context, userID string, limit int) ([]domain.PointEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, amount, source, ref_id, created_at
		 FROM point_events WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list point events: %w", err)
	}
	defer rows.Close()

	var events []domain.PointEvent
	for rows.Next() {
		var e domain.PointEvent
		var ref sql.NullString
		var at int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Source, &ref, &at); err != nil {
			return nil, err
		}
		e.RefID = ref.String
		e.At = time.Unix(at, 0).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
