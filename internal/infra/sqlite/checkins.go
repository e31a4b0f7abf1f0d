package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// ─── Mood Check-ins ─────────────────────────────────────────────────────────

const checkInColumns = `id, user_id, tag, mood, energy, stress, sleep, note, created_at`

// InsertCheckIn stores a check-in and returns its id.
func (d *DB) InsertCheckIn(ctx context.Context, c domain.CheckIn) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO check_ins (user_id, tag, mood, energy, stress, sleep, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.UserID, string(c.Tag), c.Mood, c.Energy, c.Stress, c.Sleep, c.Note, c.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert check-in: %w", err)
	}
	return result.LastInsertId()
}

// ListCheckIns returns check-ins created at or after since, oldest first.
func (d *DB) ListCheckIns(ctx context.Context, userID string, since time.Time) ([]domain.CheckIn, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins
		 WHERE user_id = ? AND created_at >= ?
		 ORDER BY created_at, id`, userID, since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	var out []domain.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestCheckIn returns the newest check-in.
func (d *DB) LatestCheckIn(ctx context.Context, userID string) (domain.CheckIn, bool, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	c, err := scanCheckIn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckIn{}, false, nil
	}
	if err != nil {
		return domain.CheckIn{}, false, fmt.Errorf("latest check-in: %w", err)
	}
	return c, true, nil
}

func scanCheckIn(s scanner) (domain.CheckIn, error) {
	var c domain.CheckIn
	var createdAt int64
	err := s.Scan(&c.ID, &c.UserID, &c.Tag, &c.Mood, &c.Energy, &c.Stress, &c.Sleep, &c.Note, &createdAt)
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return c, err
}
