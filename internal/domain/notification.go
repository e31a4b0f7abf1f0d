package domain

import "time"

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement       NotificationType = "achievement"
	NotifyLevelUp           NotificationType = "level_up"
	NotifyChallengeComplete NotificationType = "challenge_complete"
	NotifyMilestone         NotificationType = "milestone"
)

// NotificationTypeFor maps a ledger event to the notification it produces.
func NotificationTypeFor(k EventKind) NotificationType {
	switch k {
	case EventAchievementUnlocked:
		return NotifyAchievement
	case EventMilestoneUnlocked:
		return NotifyMilestone
	case EventChallengeCompleted:
		return NotifyChallengeComplete
	default:
		return NotifyLevelUp
	}
}

// Notification is a user-facing message.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"-"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	RefID     string           `json:"ref_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how often a user is notified.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day" toml:"max_per_day"` // Default: 3
	QuietStart string `json:"quiet_start" toml:"quiet_start"` // "22:00"
	QuietEnd   string `json:"quiet_end" toml:"quiet_end"`     // "08:00"
}

// DefaultNotificationPolicy returns the stock policy.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  3,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}

// ─── Devices ────────────────────────────────────────────────────────────────

// Device is a push token registered by a client app.
type Device struct {
	UserID       string    `json:"-"`
	Token        string    `json:"token"`
	Platform     string    `json:"platform"` // "ios", "android", "web"
	RegisteredAt time.Time `json:"registered_at"`
}

// ─── Point History ──────────────────────────────────────────────────────────

// PointEvent is a persisted PointAward.
type PointEvent struct {
	ID     string    `json:"id"` // UUID
	UserID string    `json:"-"`
	Amount int64     `json:"amount"`
	Source string    `json:"source"`
	RefID  string    `json:"ref_id,omitempty"`
	At     time.Time `json:"at"`
}
