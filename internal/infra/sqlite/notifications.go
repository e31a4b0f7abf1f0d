package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/genyouth/wellness/internal/domain"
)

// ─── Notifications ──────────────────────────────────────────────────────────

// InsertNotification creates a new notification.
func (d *DB) InsertNotification(ctx context.Context, n domain.Notification) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, type, title, body, ref_id, created_at, shown)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, string(n.Type), n.Title, n.Body, nullStr(n.RefID), n.CreatedAt.Unix(), n.Shown,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CountNotificationsSince counts a user's notifications created at or after since.
func (d *DB) CountNotificationsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND created_at >= ?`, userID, since.Unix(),
	).Scan(&count)
	return count, err
}

// ListPendingNotifications returns unshown notifications.
func (d *DB) ListPendingNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, user_id, type, title, body, ref_id, created_at, shown
		 FROM notifications WHERE user_id = ? AND shown = 0
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifs []domain.Notification
	for rows.Next() {
		n, err := scanNotif(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, *n)
	}
	return notifs, rows.Err()
}

// MarkNotificationShown marks a notification as shown.
func (d *DB) MarkNotificationShown(ctx context.Context, userID string, id int64) (bool, error) {
	res, err := d.db.ExecContext(ctx,
		`UPDATE notifications SET shown = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanNotif(s scanner) (*domain.Notification, error) {
	var n domain.Notification
	var ref sql.NullString
	var createdAt int64
	err := s.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &ref, &createdAt, &n.Shown)
	if err != nil {
		return nil, err
	}
	n.RefID = ref.String
	n.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &n, nil
}

// ─── Device Tokens ──────────────────────────────────────────────────────────

// UpsertDevice registers a push token, refreshing its platform and timestamp.
func (d *DB) UpsertDevice(ctx context.Context, dev domain.Device) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO device_tokens (user_id, token, platform, registered_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, token) DO UPDATE SET
			platform=excluded.platform,
			registered_at=excluded.registered_at`,
		dev.UserID, dev.Token, dev.Platform, dev.RegisteredAt.Unix(),
	)
	return err
}

// ListDevices returns a user's push tokens, oldest registration first.
func (d *DB) ListDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT user_id, token, platform, registered_at
		 FROM device_tokens WHERE user_id = ? ORDER BY registered_at`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var dev domain.Device
		var at int64
		if err := rows.Scan(&dev.UserID, &dev.Token, &dev.Platform, &at); err != nil {
			return nil, err
		}
		dev.RegisteredAt = time.Unix(at, 0).UTC()
		devices = append(devices, dev)
	}
	return devices, rows.Err()
}

// DeleteDevice removes a push token, e.g. after FCM reports it unregistered.
func (d *DB) DeleteDevice(ctx context.Context, userID, token string) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM device_tokens WHERE user_id = ? AND token = ?`, userID, token)
	return err
}
