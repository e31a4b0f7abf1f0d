package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/genyouth/wellness/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func nonEmpty() int { return 16 }

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func statusOf(t *testing.T, c *Checker, name string) Status {
	t.Helper()
	for _, s := range c.Statuses() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("check %q not found in statuses", name)
	return Status{}
}

// ─── Checker Tests ──────────────────────────────────────────────────────────

func TestNewChecker(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nonEmpty)
	if c == nil {
		t.Fatal("NewChecker() returned nil")
	}
	if len(c.checks) != 3 {
		t.Errorf("checks = %d, want 3", len(c.checks))
	}
}

func TestChecker_RunAllHealthy(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nonEmpty)
	c.RunOnce(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 3 {
		t.Fatalf("Statuses() = %d, want 3", len(statuses))
	}
	for _, s := range statuses {
		if !s.Healthy {
			t.Errorf("check %q should be healthy, got error: %s", s.Name, s.Error)
		}
	}
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true when all checks pass")
	}
}

func TestChecker_IsHealthy_BeforeRun(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), nonEmpty)

	// No statuses before the first run, so IsHealthy is vacuously true.
	if !c.IsHealthy() {
		t.Error("IsHealthy() should be true before first run (no statuses)")
	}
}

func TestChecker_StoreDown(t *testing.T) {
	c := NewChecker(failingPinger{}, t.TempDir(), nonEmpty)
	c.RunOnce(context.Background())

	if s := statusOf(t, c, "store"); s.Healthy || s.Error == "" {
		t.Errorf("store check = %+v, want unhealthy with error", s)
	}
	if c.IsHealthy() {
		t.Error("IsHealthy() should be false when the store is down")
	}
}

func TestChecker_EmptyCatalog(t *testing.T) {
	c := NewChecker(newTestDB(t), t.TempDir(), func() int { return 0 })
	c.RunOnce(context.Background())

	if s := statusOf(t, c, "catalog"); s.Healthy {
		t.Error("catalog check should fail for an empty catalog")
	}
}

func TestChecker_DataDirRecovered(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	c := NewChecker(newTestDB(t), dir, nonEmpty)

	c.RunOnce(context.Background())
	if s := statusOf(t, c, "data_dir"); s.Healthy {
		t.Error("data_dir should fail before it exists")
	}
	// Recovery created the directory; the next run passes.
	c.RunOnce(context.Background())
	if s := statusOf(t, c, "data_dir"); !s.Healthy {
		t.Errorf("data_dir should be healthy after recovery: %s", s.Error)
	}
}

func TestChecker_DataDirIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	os.WriteFile(path, []byte("not a dir"), 0644)

	c := NewChecker(newTestDB(t), path, nonEmpty)
	c.RunOnce(context.Background())

	if s := statusOf(t, c, "data_dir"); s.Healthy {
		t.Error("data_dir should fail when path is a file")
	}
}

func TestChecker_CustomCheck(t *testing.T) {
	c := &Checker{
		checks: []Check{
			{
				Name: "always_pass",
				CheckFn: func(ctx context.Context) error {
					return nil
				},
			},
		},
	}

	c.runAll(context.Background())

	statuses := c.Statuses()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if !statuses[0].Healthy {
		t.Error("always_pass check should be healthy")
	}
}
