package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// LedgerStore persists one progression snapshot per user.
// Implemented by infra/sqlite.DB and infra/postgres.Store.
type LedgerStore interface {
	// LoadLedger returns the stored snapshot. found is false for a new user.
	LoadLedger(ctx context.Context, userID string) (snap Snapshot, found bool, err error)

	// SaveLedger replaces the user's snapshot and appends awards to the
	// point history, atomically.
	SaveLedger(ctx context.Context, userID string, snap Snapshot, awards []PointAward) error

	// ListPointEvents returns the newest point events first.
	ListPointEvents(ctx context.Context, userID string, limit int) ([]PointEvent, error)

	Ping(ctx context.Context) error
}

// NotificationStore persists notifications and push device tokens.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n Notification) (int64, error)

	// CountNotificationsSince counts a user's notifications created at or after since.
	CountNotificationsSince(ctx context.Context, userID string, since time.Time) (int, error)

	// ListPendingNotifications returns unshown notifications, newest first.
	ListPendingNotifications(ctx context.Context, userID string, limit int) ([]Notification, error)

	// MarkNotificationShown reports false when the user owns no such notification.
	MarkNotificationShown(ctx context.Context, userID string, id int64) (bool, error)

	UpsertDevice(ctx context.Context, d Device) error
	ListDevices(ctx context.Context, userID string) ([]Device, error)
	DeleteDevice(ctx context.Context, userID, token string) error
}

// CheckInStore persists mood check-ins.
type CheckInStore interface {
	InsertCheckIn(ctx context.Context, c CheckIn) (int64, error)

	// ListCheckIns returns a user's check-ins created at or after since, oldest first.
	ListCheckIns(ctx context.Context, userID string, since time.Time) ([]CheckIn, error)

	// LatestCheckIn returns the newest check-in. found is false when there is none.
	LatestCheckIn(ctx context.Context, userID string) (c CheckIn, found bool, err error)
}

// Store is the full persistence surface the daemon wires.
type Store interface {
	LedgerStore
	NotificationStore
	CheckInStore
	Close() error
}
