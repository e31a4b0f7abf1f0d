// Package checkin records daily mood check-ins and summarizes them into
// the weekly trend the dashboard shows. A check-in also counts as a
// zero-minute activity on the caller's ledger and yields content
// recommendations for the mood it reports.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/genyouth/wellness/internal/app/recommend"
	"github.com/genyouth/wellness/internal/app/session"
	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/infra/metrics"
	"github.com/genyouth/wellness/internal/logging"
)

const (
	// DefaultDays is the summary window when none is requested.
	DefaultDays = 7
	// MaxDays bounds the summary window.
	MaxDays = 90
	// recommendLimit caps recommendations returned with a check-in.
	recommendLimit = 3
)

// ActivityLogger credits a check-in to the user's progression ledger.
type ActivityLogger interface {
	LogActivity(ctx context.Context, userID string, date time.Time, minutes int) (session.Result, error)
}

// Service records and summarizes check-ins.
type Service struct {
	store    domain.CheckInStore
	matcher  *recommend.Matcher
	activity ActivityLogger
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithActivityLogger credits each check-in as an activity.
func WithActivityLogger(a ActivityLogger) Option {
	return func(s *Service) { s.activity = a }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a check-in service.
func NewService(store domain.CheckInStore, matcher *recommend.Matcher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		matcher: matcher,
		now:     time.Now,
		log:     logging.New("checkin"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Recorded is the outcome of a check-in.
type Recorded struct {
	CheckIn         domain.CheckIn       `json:"check_in"`
	Recommendations []domain.ContentItem `json:"recommendations"`
	Progress        *domain.Snapshot     `json:"progress,omitempty"`
	Events          []domain.Event       `json:"events"`
}

// History is a window of check-ins with its summary.
type History struct {
	CheckIns []domain.CheckIn      `json:"check_ins"`
	Summary  domain.CheckInSummary `json:"summary"`
}

// Record stores a check-in stamped with the current time. loc decides the
// calendar day it is credited to; nil means the clock's zone.
func (s *Service) Record(ctx context.Context, userID string, in domain.CheckIn, loc *time.Location) (Recorded, error) {
	if userID == "" {
		return Recorded{}, domain.ErrUnauthenticated
	}
	in.Tag = domain.MoodTag(domain.NormalizeTag(string(in.Tag)))
	in.Note = strings.TrimSpace(in.Note)
	if err := in.Validate(); err != nil {
		return Recorded{}, err
	}

	now := s.now()
	if loc == nil {
		loc = now.Location()
	}
	in.ID = 0
	in.UserID = userID
	in.CreatedAt = now.UTC()

	id, err := s.store.InsertCheckIn(ctx, in)
	if err != nil {
		return Recorded{}, fmt.Errorf("record check-in: %w", err)
	}
	in.ID = id
	metrics.CheckIns.Inc()

	out := Recorded{CheckIn: in, Recommendations: []domain.ContentItem{}, Events: []domain.Event{}}
	if tag := in.EffectiveTag(); tag != "" && s.matcher != nil {
		out.Recommendations = s.matcher.Recommend(string(tag), recommendLimit)
	}

	// The check-in is stored either way; crediting the ledger is best effort.
	if s.activity != nil {
		res, err := s.activity.LogActivity(ctx, userID, now.In(loc), 0)
		switch {
		case err == nil:
			out.Progress = &res.Snapshot
			out.Events = res.Events
		case errors.Is(err, domain.ErrInvalidDate):
			s.log.Debug("check-in not credited", "user", userID, "error", err)
		default:
			s.log.Warn("credit check-in", "user", userID, "error", err)
		}
	}
	return out, nil
}

// History returns the last days calendar days of check-ins, today
// included, grouped in loc. days <= 0 means DefaultDays.
func (s *Service) History(ctx context.Context, userID string, days int, loc *time.Location) (History, error) {
	if userID == "" {
		return History{}, domain.ErrUnauthenticated
	}
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		return History{}, fmt.Errorf("window of %d days exceeds %d: %w", days, MaxDays, domain.ErrInvalidCheckIn)
	}
	now := s.now()
	if loc != nil {
		now = now.In(loc)
	}
	from := startOfDay(now).AddDate(0, 0, -(days - 1))

	entries, err := s.store.ListCheckIns(ctx, userID, from)
	if err != nil {
		return History{}, fmt.Errorf("check-in history: %w", err)
	}
	if entries == nil {
		entries = []domain.CheckIn{}
	}
	return History{CheckIns: entries, Summary: Summarize(entries, now, days)}, nil
}

// Latest returns the user's newest check-in, if any.
func (s *Service) Latest(ctx context.Context, userID string) (domain.CheckIn, bool, error) {
	if userID == "" {
		return domain.CheckIn{}, false, domain.ErrUnauthenticated
	}
	c, found, err := s.store.LatestCheckIn(ctx, userID)
	if err != nil {
		return domain.CheckIn{}, false, fmt.Errorf("latest check-in: %w", err)
	}
	return c, found, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
