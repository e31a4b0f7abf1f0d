// Package session hosts one progression ledger per user. Every operation
// runs under that user's lock: load the snapshot, apply the ledger call,
// persist the new snapshot with its point awards, then hand the emitted
// events to the notifier.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/genyouth/wellness/internal/app/progression"
	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/infra/metrics"
	"github.com/genyouth/wellness/internal/logging"
)

// Notifier receives ledger events after they are persisted.
type Notifier interface {
	Publish(ctx context.Context, userID string, ev domain.Event) (int64, error)
}

// Result is the outcome of a mutating operation.
type Result struct {
	Snapshot domain.Snapshot `json:"progress"`
	Events   []domain.Event  `json:"events"`
}

// Manager serializes ledger operations per user.
type Manager struct {
	defs     domain.Definitions
	store    domain.LedgerStore
	notifier Notifier
	now      func() time.Time
	log      *slog.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier sends unlock events to n.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithClock overrides time.Now for ledgers and challenge periods.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager over the given definitions and store.
func NewManager(defs domain.Definitions, store domain.LedgerStore, opts ...Option) *Manager {
	m := &Manager{
		defs:  defs,
		store: store,
		now:   time.Now,
		log:   logging.New("session"),
		locks: make(map[string]*userLock),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// ─── Per-user Locking ───────────────────────────────────────────────────────

// lock acquires the user's mutex. Entries are dropped once no caller holds
// or waits on them, so the map only grows with concurrent users.
func (m *Manager) lock(userID string) func() {
	m.mu.Lock()
	l, ok := m.locks[userID]
	if !ok {
		l = &userLock{}
		m.locks[userID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, userID)
		}
		m.mu.Unlock()
	}
}

// ─── Operations ─────────────────────────────────────────────────────────────

// Progress returns the user's current snapshot. Challenges whose period
// has ended are shown reset; nothing is written.
func (m *Manager) Progress(ctx context.Context, userID string) (domain.Snapshot, error) {
	if userID == "" {
		return domain.Snapshot{}, domain.ErrUnauthenticated
	}
	unlock := m.lock(userID)
	defer unlock()

	l, err := m.load(ctx, userID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	l.RolloverChallenges(m.now())
	return l.Snapshot(), nil
}

// AwardPoints adds points from an external source.
func (m *Manager) AwardPoints(ctx context.Context, userID string, amount int64, source string) (Result, error) {
	return m.apply(ctx, userID, "award", func(l *progression.Ledger) error {
		_, err := l.AwardPointsFrom(amount, source, "")
		return err
	})
}

// LogActivity records activity minutes on date.
func (m *Manager) LogActivity(ctx context.Context, userID string, date time.Time, minutes int) (Result, error) {
	return m.apply(ctx, userID, "log_activity", func(l *progression.Ledger) error {
		_, err := l.LogActivity(date, minutes)
		return err
	})
}

// UpdateChallenge adds delta to a challenge in the current period.
func (m *Manager) UpdateChallenge(ctx context.Context, userID, challengeID string, delta int) (Result, error) {
	return m.apply(ctx, userID, "challenge", func(l *progression.Ledger) error {
		_, err := l.UpdateChallengeProgress(challengeID, delta, m.now())
		return err
	})
}

// Rollover resets challenges whose period has ended and returns their ids.
func (m *Manager) Rollover(ctx context.Context, userID string) ([]string, Result, error) {
	var rolled []string
	res, err := m.apply(ctx, userID, "rollover", func(l *progression.Ledger) error {
		rolled = l.RolloverChallenges(m.now())
		return nil
	})
	if rolled == nil {
		rolled = []string{}
	}
	return rolled, res, err
}

// History returns the user's point events, newest first.
func (m *Manager) History(ctx context.Context, userID string, limit int) ([]domain.PointEvent, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	events, err := m.store.ListPointEvents(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("point history: %w", err)
	}
	if events == nil {
		events = []domain.PointEvent{}
	}
	return events, nil
}

// Definitions returns the progression catalog ledgers are built from.
func (m *Manager) Definitions() domain.Definitions { return m.defs }

// ─── Internals ──────────────────────────────────────────────────────────────

func (m *Manager) load(ctx context.Context, userID string) (*progression.Ledger, error) {
	snap, found, err := m.store.LoadLedger(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger %s: %w", userID, err)
	}
	if !found {
		return progression.New(m.defs, progression.WithClock(m.now)), nil
	}
	l, err := progression.Restore(m.defs, snap, progression.WithClock(m.now))
	if err != nil {
		return nil, fmt.Errorf("restore ledger %s: %w", userID, err)
	}
	return l, nil
}

func (m *Manager) apply(ctx context.Context, userID, op string, fn func(*progression.Ledger) error) (Result, error) {
	if userID == "" {
		return Result{}, domain.ErrUnauthenticated
	}
	start := time.Now()
	defer func() {
		metrics.LedgerOpLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	unlock := m.lock(userID)
	defer unlock()

	l, err := m.load(ctx, userID)
	if err != nil {
		metrics.LedgerOpErrors.WithLabelValues(op, "store").Inc()
		return Result{}, err
	}
	if err := fn(l); err != nil {
		metrics.LedgerOpErrors.WithLabelValues(op, reason(err)).Inc()
		return Result{}, err
	}

	snap := l.Snapshot()
	awards := l.DrainAwards()
	events := l.DrainEvents()
	if err := m.store.SaveLedger(ctx, userID, snap, awards); err != nil {
		metrics.LedgerOpErrors.WithLabelValues(op, "store").Inc()
		return Result{}, fmt.Errorf("save ledger %s: %w", userID, err)
	}

	for _, a := range awards {
		metrics.PointsAwarded.WithLabelValues(a.Source).Add(float64(a.Amount))
	}
	for _, ev := range events {
		metrics.Unlocks.WithLabelValues(string(ev.Kind)).Inc()
		m.log.Info("ledger event", "user", userID, "kind", ev.Kind, "ref", ev.RefID)
		if m.notifier == nil {
			continue
		}
		if _, err := m.notifier.Publish(ctx, userID, ev); err != nil {
			m.log.Warn("publish notification", "user", userID, "ref", ev.RefID, "error", err)
		}
	}

	if events == nil {
		events = []domain.Event{}
	}
	return Result{Snapshot: snap, Events: events}, nil
}

// reason maps an error to a low-cardinality metric label.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, domain.ErrUnknownChallenge):
		return "unknown_challenge"
	default:
		return "other"
	}
}
