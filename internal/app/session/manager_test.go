package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/genyouth/wellness/internal/app/session"
	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/infra/catalog"
	"github.com/genyouth/wellness/internal/infra/sqlite"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var (
	ctx  = context.Background()
	noon = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingNotifier) Publish(_ context.Context, _ string, ev domain.Event) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return int64(len(r.events)), nil
}

func newManager(t *testing.T, db *sqlite.DB, opts ...session.Option) *session.Manager {
	t.Helper()
	opts = append([]session.Option{session.WithClock(func() time.Time { return noon })}, opts...)
	return session.NewManager(catalog.Default().Definitions(), db, opts...)
}

func kinds(events []domain.Event) []domain.EventKind {
	out := make([]domain.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Operations
// ═══════════════════════════════════════════════════════════════════════════

func TestProgress_NewUserIsEmpty(t *testing.T) {
	m := newManager(t, testDB(t))
	snap, err := m.Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if snap.Points != 0 || snap.Level.Level != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Achievements) != 6 || len(snap.Challenges) != 5 || len(snap.Milestones) != 5 {
		t.Errorf("catalog not reflected: %d/%d/%d", len(snap.Achievements), len(snap.Challenges), len(snap.Milestones))
	}
}

func TestAwardPoints_PersistsAcrossManagers(t *testing.T) {
	db := testDB(t)
	res, err := newManager(t, db).AwardPoints(ctx, "u1", 120, "")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if res.Snapshot.Points != 120 {
		t.Errorf("points = %d, want 120", res.Snapshot.Points)
	}
	if diff := cmp.Diff([]domain.EventKind{domain.EventLevelUp, domain.EventMilestoneUnlocked}, kinds(res.Events)); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}

	snap, err := newManager(t, db).Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if snap.Points != 120 {
		t.Errorf("reloaded points = %d, want 120", snap.Points)
	}
	if !snap.Milestones[0].Unlocked {
		t.Error("novice milestone should stay unlocked after reload")
	}
}

func TestAwardPoints_RejectedLeavesNoTrace(t *testing.T) {
	db := testDB(t)
	m := newManager(t, db)
	if _, err := m.AwardPoints(ctx, "u1", -5, ""); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if _, found, _ := db.LoadLedger(ctx, "u1"); found {
		t.Error("rejected call must not persist a ledger")
	}
}

func TestLogActivity_UnlocksAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	m := newManager(t, testDB(t), session.WithNotifier(notifier))

	res, err := m.LogActivity(ctx, "u1", noon, 15)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if res.Snapshot.Points != 50 {
		t.Errorf("points = %d, want 50 from first_steps", res.Snapshot.Points)
	}
	if res.Snapshot.Streak.Current != 1 || res.Snapshot.ActivityMinutes != 15 {
		t.Errorf("snapshot = %+v", res.Snapshot)
	}
	if len(notifier.events) != 1 || notifier.events[0].RefID != "first_steps" {
		t.Errorf("notified = %+v", notifier.events)
	}

	// Retroactive log is rejected.
	if _, err := m.LogActivity(ctx, "u1", noon.AddDate(0, 0, -1), 10); !errors.Is(err, domain.ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
}

func TestUpdateChallenge(t *testing.T) {
	m := newManager(t, testDB(t))

	if _, err := m.UpdateChallenge(ctx, "u1", "nope", 1); !errors.Is(err, domain.ErrUnknownChallenge) {
		t.Errorf("err = %v, want ErrUnknownChallenge", err)
	}

	res, err := m.UpdateChallenge(ctx, "u1", "hydration_hero", 8)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Snapshot.Points != 20 || res.Snapshot.ChallengesCompleted != 1 {
		t.Errorf("snapshot = %+v", res.Snapshot)
	}
	if diff := cmp.Diff([]domain.EventKind{domain.EventChallengeCompleted}, kinds(res.Events)); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}

	// Completed challenge pays once.
	res, err = m.UpdateChallenge(ctx, "u1", "hydration_hero", 3)
	if err != nil {
		t.Fatalf("update again: %v", err)
	}
	if res.Snapshot.Points != 20 || len(res.Events) != 0 {
		t.Errorf("second update changed state: points=%d events=%v", res.Snapshot.Points, res.Events)
	}
}

func TestRollover_NextDay(t *testing.T) {
	db := testDB(t)
	now := noon
	m := session.NewManager(catalog.Default().Definitions(), db,
		session.WithClock(func() time.Time { return now }))

	if _, err := m.UpdateChallenge(ctx, "u1", "hydration_hero", 8); err != nil {
		t.Fatalf("update: %v", err)
	}

	rolled, _, err := m.Rollover(ctx, "u1")
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if len(rolled) != 0 {
		t.Errorf("same-day rollover reset %v", rolled)
	}

	now = noon.AddDate(0, 0, 1) // Wednesday, same ISO week and month
	rolled, res, err := m.Rollover(ctx, "u1")
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	want := []string{"daily_mindfulness", "hydration_hero", "social_connection"}
	if diff := cmp.Diff(want, rolled); diff != "" {
		t.Errorf("rolled (-want +got):\n%s", diff)
	}
	for _, c := range res.Snapshot.Challenges {
		if c.ID == "hydration_hero" && (c.Completed || c.Progress != 0) {
			t.Errorf("hydration_hero not reset: %+v", c)
		}
	}
	if res.Snapshot.Points != 20 {
		t.Errorf("rollover must keep points, got %d", res.Snapshot.Points)
	}
}

func TestHistory(t *testing.T) {
	m := newManager(t, testDB(t))
	m.AwardPoints(ctx, "u1", 10, "journal")
	m.LogActivity(ctx, "u1", noon, 5)

	events, err := m.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	sources := map[string]bool{}
	for _, e := range events {
		sources[e.Source] = true
	}
	if !sources["journal"] || !sources[domain.SourceAchievement] {
		t.Errorf("sources = %v", sources)
	}

	empty, err := m.History(ctx, "u2", 10)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty history = %v, %v", empty, err)
	}
}

func TestUnauthenticated(t *testing.T) {
	m := newManager(t, testDB(t))
	if _, err := m.AwardPoints(ctx, "", 1, ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("award err = %v", err)
	}
	if _, err := m.Progress(ctx, ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("progress err = %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Concurrency
// ═══════════════════════════════════════════════════════════════════════════

func TestConcurrentAwards_Serialized(t *testing.T) {
	m := newManager(t, testDB(t))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.AwardPoints(ctx, "u1", 10, ""); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("award: %v", err)
	}

	snap, err := m.Progress(ctx, "u1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if snap.Points != 500 {
		t.Errorf("points = %d, want 500 (lost update)", snap.Points)
	}
}
