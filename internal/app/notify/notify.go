// Package notify turns ledger events into user notifications.
//
// Policy:
//   - At most MaxPerDay stored notifications per user per calendar day
//   - Nothing between QuietStart and QuietEnd (server clock)
//   - Only unlock-type events notify: achievements, milestones,
//     challenge completions and level-ups
//
// Stored notifications are also pushed to the user's registered devices
// when a Pusher is configured.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/infra/metrics"
	"github.com/genyouth/wellness/internal/logging"
)

// Pusher delivers a notification to device tokens. It returns the tokens
// the provider reported as no longer registered.
type Pusher interface {
	Push(ctx context.Context, tokens []string, n domain.Notification) (stale []string, err error)
}

// Service manages per-user notifications.
type Service struct {
	store  domain.NotificationStore
	policy domain.NotificationPolicy
	pusher Pusher
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPusher enables push delivery.
func WithPusher(p Pusher) Option {
	return func(s *Service) { s.pusher = p }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a notification service.
func NewService(store domain.NotificationStore, policy domain.NotificationPolicy, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: policy,
		now:    time.Now,
		log:    logging.New("notify"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Publish stores a notification for the event if policy allows it.
// Returns the notification ID, or 0 if suppressed by policy.
func (s *Service) Publish(ctx context.Context, userID string, ev domain.Event) (int64, error) {
	now := s.now()

	// Check quiet hours
	if s.isQuietHour(now) {
		metrics.NotificationsSuppressed.WithLabelValues("quiet_hours").Inc()
		return 0, nil
	}

	// Check daily limit
	todayCount, err := s.store.CountNotificationsSince(ctx, userID, startOfDay(now))
	if err != nil {
		return 0, fmt.Errorf("count today: %w", err)
	}
	if todayCount >= s.policy.MaxPerDay {
		metrics.NotificationsSuppressed.WithLabelValues("daily_limit").Inc()
		return 0, nil
	}

	n := render(ev)
	n.UserID = userID
	n.CreatedAt = now

	id, err := s.store.InsertNotification(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	n.ID = id
	metrics.NotificationsPublished.WithLabelValues(string(n.Type)).Inc()

	if s.pusher != nil {
		s.push(ctx, n)
	}
	return id, nil
}

// push is best effort: delivery failures are logged, never returned.
func (s *Service) push(ctx context.Context, n domain.Notification) {
	devices, err := s.store.ListDevices(ctx, n.UserID)
	if err != nil {
		s.log.Warn("list devices", "user", n.UserID, "error", err)
		return
	}
	if len(devices) == 0 {
		return
	}
	tokens := make([]string, len(devices))
	for i, d := range devices {
		tokens[i] = d.Token
	}

	stale, err := s.pusher.Push(ctx, tokens, n)
	if err != nil {
		metrics.PushSent.WithLabelValues("error").Inc()
		s.log.Warn("push failed", "user", n.UserID, "notification", n.ID, "error", err)
	} else {
		metrics.PushSent.WithLabelValues("ok").Inc()
	}
	for _, tok := range stale {
		if err := s.store.DeleteDevice(ctx, n.UserID, tok); err != nil {
			s.log.Warn("delete stale device", "user", n.UserID, "error", err)
		}
	}
}

// render builds the user-facing text for an event.
func render(ev domain.Event) domain.Notification {
	n := domain.Notification{
		Type:  domain.NotificationTypeFor(ev.Kind),
		RefID: ev.RefID,
	}
	switch ev.Kind {
	case domain.EventAchievementUnlocked:
		n.Title = "Achievement unlocked"
		n.Body = fmt.Sprintf("%s (+%d points)", ev.Title, ev.Points)
	case domain.EventMilestoneUnlocked:
		n.Title = "Milestone reached"
		n.Body = ev.Title
	case domain.EventChallengeCompleted:
		n.Title = "Challenge complete"
		n.Body = fmt.Sprintf("%s (+%d points)", ev.Title, ev.Points)
	default:
		n.Title = "Level up"
		n.Body = ev.Title
	}
	return n
}

// Pending returns unshown notifications, newest first.
func (s *Service) Pending(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListPendingNotifications(ctx, userID, limit)
}

// MarkShown marks a notification as shown.
func (s *Service) MarkShown(ctx context.Context, userID string, id int64) error {
	ok, err := s.store.MarkNotificationShown(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("mark shown: %w", err)
	}
	if !ok {
		return fmt.Errorf("notification %d: %w", id, domain.ErrNotificationNotFound)
	}
	return nil
}

// RegisterDevice stores a push token for the user.
func (s *Service) RegisterDevice(ctx context.Context, userID, token, platform string) (domain.Device, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Device{}, domain.ErrInvalidDevice
	}
	d := domain.Device{
		UserID:       userID,
		Token:        token,
		Platform:     strings.ToLower(strings.TrimSpace(platform)),
		RegisteredAt: s.now(),
	}
	if err := s.store.UpsertDevice(ctx, d); err != nil {
		return domain.Device{}, fmt.Errorf("register device: %w", err)
	}
	return d, nil
}

// TodayCount returns how many notifications the user received today.
func (s *Service) TodayCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountNotificationsSince(ctx, userID, startOfDay(s.now()))
}

// Policy returns the current notification policy.
func (s *Service) Policy() domain.NotificationPolicy {
	return s.policy
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// isQuietHour returns true if the given time falls within quiet hours.
// Policy: no notifications between QuietStart and QuietEnd.
func (s *Service) isQuietHour(t time.Time) bool {
	startHour, startMin := parseHHMM(s.policy.QuietStart)
	endHour, endMin := parseHHMM(s.policy.QuietEnd)

	timeMinutes := t.Hour()*60 + t.Minute()
	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	if startMinutes == endMinutes {
		return false // No quiet window
	}
	if startMinutes > endMinutes {
		// Wraps midnight: e.g., 22:00 – 08:00
		return timeMinutes >= startMinutes || timeMinutes < endMinutes
	}
	// Same day range
	return timeMinutes >= startMinutes && timeMinutes < endMinutes
}

// parseHHMM parses "HH:MM" into hour and minute.
func parseHHMM(s string) (int, int) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}
