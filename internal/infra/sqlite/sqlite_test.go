package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/genyouth/wellness/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var (
	ctx = context.Background()
	t0  = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
)

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	// Check file exists
	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := db.SaveLedger(ctx, "u1", domain.Snapshot{Points: 42}, nil); err != nil {
		t.Fatalf("SaveLedger() error: %v", err)
	}
	db.Close()

	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer db.Close()
	snap, found, err := db.LoadLedger(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("LoadLedger() = found %v, err %v", found, err)
	}
	if snap.Points != 42 {
		t.Errorf("Points = %d, want 42", snap.Points)
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	db := newTestDB(t)

	var mode string
	if err := db.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var fk, timeout int
	if err := db.db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
	if err := db.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}

// ─── Ledger Snapshots ───────────────────────────────────────────────────────

func TestLoadLedger_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, found, err := db.LoadLedger(ctx, "nobody")
	if err != nil {
		t.Fatalf("LoadLedger() error: %v", err)
	}
	if found {
		t.Error("expected found = false")
	}
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Points: 1510,
		Streak: domain.Streak{
			Current:  3,
			Longest:  9,
			LastDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		},
		Activities:          12,
		ActivityMinutes:     240,
		ChallengesCompleted: 2,
		Achievements: []domain.AchievementState{
			{ID: "first_steps", Unlocked: true, UnlockedAt: t0},
			{ID: "week_warrior"},
		},
		Milestones: []domain.MilestoneState{
			{ID: "novice", Unlocked: true, UnlockedAt: t0.Add(time.Minute)},
			{ID: "explorer"},
		},
		Challenges: []domain.ChallengeState{
			{ID: "hydration", PeriodKey: "2025-07-01", Progress: 8, Completed: true, CompletedAt: t0},
			{ID: "gratitude", PeriodKey: "2025-07", Progress: 4},
		},
	}
}

func TestSaveLedger_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	want := sampleSnapshot()
	if err := db.SaveLedger(ctx, "u1", want, nil); err != nil {
		t.Fatalf("SaveLedger() error: %v", err)
	}

	got, found, err := db.LoadLedger(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("LoadLedger() = found %v, err %v", found, err)
	}

	if got.Points != want.Points || got.Activities != want.Activities ||
		got.ActivityMinutes != want.ActivityMinutes || got.ChallengesCompleted != want.ChallengesCompleted {
		t.Errorf("counters mismatch: got %+v", got)
	}
	if diff := cmp.Diff(want.Streak, got.Streak); diff != "" {
		t.Errorf("streak (-want +got):\n%s", diff)
	}
	// Only unlocked states are stored.
	if diff := cmp.Diff(want.Achievements[:1], got.Achievements); diff != "" {
		t.Errorf("achievements (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Milestones[:1], got.Milestones); diff != "" {
		t.Errorf("milestones (-want +got):\n%s", diff)
	}
	if len(got.Challenges) != 2 {
		t.Fatalf("challenges = %d, want 2", len(got.Challenges))
	}
	byID := map[string]domain.ChallengeState{}
	for _, c := range got.Challenges {
		byID[c.ID] = c
	}
	if c := byID["hydration"]; !c.Completed || c.Progress != 8 || !c.CompletedAt.Equal(t0) {
		t.Errorf("hydration = %+v", c)
	}
	if c := byID["gratitude"]; c.Completed || c.PeriodKey != "2025-07" || !c.CompletedAt.IsZero() {
		t.Errorf("gratitude = %+v", c)
	}
}

func TestSaveLedger_UnlockTimeIsKept(t *testing.T) {
	db := newTestDB(t)
	snap := sampleSnapshot()
	if err := db.SaveLedger(ctx, "u1", snap, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	snap.Achievements[0].UnlockedAt = t0.Add(48 * time.Hour)
	snap.Points = 2000
	if err := db.SaveLedger(ctx, "u1", snap, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _, err := db.LoadLedger(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadLedger() error: %v", err)
	}
	if got.Points != 2000 {
		t.Errorf("Points = %d, want 2000", got.Points)
	}
	if !got.Achievements[0].UnlockedAt.Equal(t0) {
		t.Errorf("UnlockedAt = %v, want first unlock %v", got.Achievements[0].UnlockedAt, t0)
	}
}

func TestSaveLedger_UsersIsolated(t *testing.T) {
	db := newTestDB(t)
	if err := db.SaveLedger(ctx, "a", domain.Snapshot{Points: 1}, nil); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveLedger(ctx, "b", domain.Snapshot{Points: 2}, nil); err != nil {
		t.Fatal(err)
	}
	a, _, _ := db.LoadLedger(ctx, "a")
	b, _, _ := db.LoadLedger(ctx, "b")
	if a.Points != 1 || b.Points != 2 {
		t.Errorf("a=%d b=%d, want 1 and 2", a.Points, b.Points)
	}
}

// ─── Point History ──────────────────────────────────────────────────────────

func TestPointEvents_AppendedNewestFirst(t *testing.T) {
	db := newTestDB(t)
	awards := []domain.PointAward{
		{Amount: 100, Source: domain.SourceManual, At: t0},
		{Amount: 50, Source: domain.SourceAchievement, RefID: "first_steps", At: t0.Add(time.Second)},
	}
	if err := db.SaveLedger(ctx, "u1", domain.Snapshot{Points: 150}, awards); err != nil {
		t.Fatalf("SaveLedger() error: %v", err)
	}
	if err := db.SaveLedger(ctx, "u1", domain.Snapshot{Points: 170},
		[]domain.PointAward{{Amount: 20, Source: domain.SourceChallenge, RefID: "hydration", At: t0.Add(time.Hour)}},
	); err != nil {
		t.Fatalf("SaveLedger() error: %v", err)
	}

	events, err := db.ListPointEvents(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListPointEvents() error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	var amounts []int64
	for _, e := range events {
		amounts = append(amounts, e.Amount)
		if e.ID == "" {
			t.Error("event id should be set")
		}
	}
	if diff := cmp.Diff([]int64{20, 50, 100}, amounts); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if events[1].RefID != "first_steps" {
		t.Errorf("RefID = %q", events[1].RefID)
	}

	limited, err := db.ListPointEvents(ctx, "u1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit 1 returned %d", len(limited))
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func TestNotifications_PendingAndShown(t *testing.T) {
	db := newTestDB(t)
	for i, title := range []string{"one", "two"} {
		_, err := db.InsertNotification(ctx, domain.Notification{
			UserID:    "u1",
			Type:      domain.NotifyAchievement,
			Title:     title,
			Body:      "body",
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("InsertNotification() error: %v", err)
		}
	}
	if _, err := db.InsertNotification(ctx, domain.Notification{UserID: "u2", Type: domain.NotifyMilestone, Title: "other", CreatedAt: t0}); err != nil {
		t.Fatal(err)
	}

	pending, err := db.ListPendingNotifications(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListPendingNotifications() error: %v", err)
	}
	if len(pending) != 2 || pending[0].Title != "two" {
		t.Fatalf("pending = %+v", pending)
	}

	ok, err := db.MarkNotificationShown(ctx, "u1", pending[0].ID)
	if err != nil || !ok {
		t.Fatalf("MarkNotificationShown() = %v, %v", ok, err)
	}
	// Another user's id is not found.
	ok, err = db.MarkNotificationShown(ctx, "u2", pending[1].ID)
	if err != nil || ok {
		t.Errorf("cross-user mark = %v, %v; want false", ok, err)
	}

	pending, _ = db.ListPendingNotifications(ctx, "u1", 10)
	if len(pending) != 1 || pending[0].Title != "one" {
		t.Errorf("pending after mark = %+v", pending)
	}

	n, err := db.CountNotificationsSince(ctx, "u1", t0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	n, _ = db.CountNotificationsSince(ctx, "u1", t0.Add(time.Minute))
	if n != 1 {
		t.Errorf("count since +1m = %d, want 1", n)
	}
}

// ─── Device Tokens ──────────────────────────────────────────────────────────

func TestDevices_UpsertListDelete(t *testing.T) {
	db := newTestDB(t)
	dev := domain.Device{UserID: "u1", Token: "tok-1", Platform: "ios", RegisteredAt: t0}
	if err := db.UpsertDevice(ctx, dev); err != nil {
		t.Fatalf("UpsertDevice() error: %v", err)
	}
	dev.Platform = "android"
	dev.RegisteredAt = t0.Add(time.Hour)
	if err := db.UpsertDevice(ctx, dev); err != nil {
		t.Fatalf("UpsertDevice() update error: %v", err)
	}

	devices, err := db.ListDevices(ctx, "u1")
	if err != nil {
		t.Fatalf("ListDevices() error: %v", err)
	}
	want := []domain.Device{{UserID: "u1", Token: "tok-1", Platform: "android", RegisteredAt: t0.Add(time.Hour)}}
	if diff := cmp.Diff(want, devices); diff != "" {
		t.Errorf("devices (-want +got):\n%s", diff)
	}

	if err := db.DeleteDevice(ctx, "u1", "tok-1"); err != nil {
		t.Fatalf("DeleteDevice() error: %v", err)
	}
	devices, _ = db.ListDevices(ctx, "u1")
	if len(devices) != 0 {
		t.Errorf("devices after delete = %d", len(devices))
	}
}

// ─── Mood Check-ins ─────────────────────────────────────────────────────────

func TestCheckIns_ListSinceAndLatest(t *testing.T) {
	db := newTestDB(t)

	if _, found, err := db.LatestCheckIn(ctx, "u1"); err != nil || found {
		t.Fatalf("LatestCheckIn() on empty = found %v, err %v", found, err)
	}

	entries := []domain.CheckIn{
		{UserID: "u1", Mood: 4, Energy: 5, Stress: 6, CreatedAt: t0.AddDate(0, 0, -10)},
		{UserID: "u1", Tag: "anxious", Mood: 5, Energy: 6, Stress: 8, Sleep: 6, Note: "exam week", CreatedAt: t0.AddDate(0, 0, -1)},
		{UserID: "u1", Mood: 7, Energy: 7, Stress: 3, CreatedAt: t0},
		{UserID: "u2", Mood: 9, Energy: 9, Stress: 1, CreatedAt: t0},
	}
	for _, c := range entries {
		if _, err := db.InsertCheckIn(ctx, c); err != nil {
			t.Fatalf("InsertCheckIn() error: %v", err)
		}
	}

	got, err := db.ListCheckIns(ctx, "u1", t0.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("ListCheckIns() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d check-ins, want 2", len(got))
	}
	want := entries[1]
	want.ID = got[0].ID
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("first check-in (-want +got):\n%s", diff)
	}

	latest, found, err := db.LatestCheckIn(ctx, "u1")
	if err != nil || !found {
		t.Fatalf("LatestCheckIn() = found %v, err %v", found, err)
	}
	if latest.Mood != 7 || !latest.CreatedAt.Equal(t0) {
		t.Errorf("latest = %+v", latest)
	}
}
