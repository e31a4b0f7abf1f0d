package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genyouth/wellness/internal/domain"
)

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput, recommendLimit, configForce = false, 5, false
	awardSource, logDate, logMinutes, historyLimit = "cli", "", 0, 20
	checkinTag, checkinNote = "", ""
	checkinMood, checkinEnergy, checkinStress, checkinSleep = 0, 0, 0, 0
	moodsDays, resourcesCountry, resourcesType = 7, "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("WELLNESS_HOME", home)
	for _, k := range []string{"WELLNESS_PORT", "CLERK_SECRET_KEY", "DATABASE_URL", "FCM_SERVICE_ACCOUNT_JSON"} {
		t.Setenv(k, "")
	}
	t.Chdir(home)
	return home
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{-5, "[" + strings.Repeat(".", barWidth) + "]   0%"},
		{0, "[" + strings.Repeat(".", barWidth) + "]   0%"},
		{50, "[" + strings.Repeat("=", 14) + ">" + strings.Repeat(".", 15) + "]  50%"},
		{100, "[" + strings.Repeat("=", barWidth) + "] 100%"},
		{250, "[" + strings.Repeat("=", barWidth) + "] 100%"},
	}
	for _, tt := range tests {
		if got := renderBar(tt.pct); got != tt.want {
			t.Errorf("renderBar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestRecommend(t *testing.T) {
	isolate(t)
	out, err := run(t, "recommend", "anxious", "--json", "--limit", "2")
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	var items []domain.ContentItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}

	out, err = run(t, "recommend", "ecstatic")
	if err != nil || !strings.Contains(out, "No content") {
		t.Errorf("no-match output = %q, %v", out, err)
	}
}

func TestLedgerCommands(t *testing.T) {
	isolate(t)

	out, err := run(t, "award", "u1", "120")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !strings.Contains(out, "120 points") || !strings.Contains(out, "[level] Level 2") {
		t.Errorf("award output = %q", out)
	}

	if _, err := run(t, "award", "u1", "-3"); err == nil {
		t.Error("negative award should fail")
	}
	if _, err := run(t, "award", "u1", "lots"); err == nil {
		t.Error("non-numeric award should fail")
	}

	if _, err := run(t, "challenge", "u1", "hydration_hero", "8"); err != nil {
		t.Fatalf("challenge: %v", err)
	}

	out, err = run(t, "progress", "u1", "--json")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(out), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Points != 140 || snap.ChallengesCompleted != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	out, err = run(t, "progress", "u1")
	if err != nil || !strings.Contains(out, "Hydration Hero") {
		t.Errorf("progress table = %q, %v", out, err)
	}

	out, err = run(t, "history", "u1")
	if err != nil || !strings.Contains(out, "challenge") {
		t.Errorf("history = %q, %v", out, err)
	}

	out, err = run(t, "rollover", "u1")
	if err != nil || !strings.Contains(out, "No challenges") {
		t.Errorf("rollover = %q, %v", out, err)
	}
}

func TestLogCommand(t *testing.T) {
	isolate(t)
	out, err := run(t, "log", "u1", "--minutes", "20")
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(out, "50 points") {
		t.Errorf("log output = %q", out)
	}
	if _, err := run(t, "log", "u1", "--date", "yesterday"); err == nil {
		t.Error("bad --date should fail")
	}
}

func TestCatalogExportAndValidate(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "catalog.toml")

	if _, err := run(t, "catalog", "export", path); err != nil {
		t.Fatalf("export: %v", err)
	}
	out, err := run(t, "catalog", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "6 achievements") {
		t.Errorf("validate output = %q", out)
	}

	bad := filepath.Join(home, "bad.toml")
	os.WriteFile(bad, []byte("[[challenges]]\nid = \"x\"\ncategory = \"yearly\"\ntarget = 1\n"), 0600)
	if _, err := run(t, "catalog", "validate", bad); err == nil {
		t.Error("invalid catalog should fail validation")
	}
}

func TestConfigInit(t *testing.T) {
	home := isolate(t)
	if _, err := run(t, "config", "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, "config.toml")); err != nil {
		t.Fatalf("config.toml missing: %v", err)
	}
	if _, err := run(t, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, err := run(t, "config", "init", "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestCheckinCommands(t *testing.T) {
	isolate(t)

	out, err := run(t, "checkin", "u1", "--tag", "anxious", "--mood", "4", "--energy", "5", "--stress", "7")
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if !strings.Contains(out, "First Steps") || !strings.Contains(out, "try Gentle Rain") {
		t.Errorf("checkin output = %q", out)
	}
	if _, err := run(t, "checkin", "u1", "--mood", "4"); err == nil {
		t.Error("check-in without energy and stress should fail")
	}

	out, err = run(t, "moods", "u1")
	if err != nil {
		t.Fatalf("moods: %v", err)
	}
	if !strings.Contains(out, "avg") || !strings.Contains(out, "4.0") {
		t.Errorf("moods output = %q", out)
	}
}

func TestResourcesCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "resources", "--country", "us", "--type", "text", "--json")
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	var list []domain.CrisisResource
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(list) != 1 || list[0].Phone != "741741" {
		t.Errorf("resources = %+v", list)
	}

	out, err = run(t, "resources")
	if err != nil || !strings.Contains(out, "988") {
		t.Errorf("resources table = %q, %v", out, err)
	}
	if _, err := run(t, "resources", "--type", "pager"); err == nil {
		t.Error("unknown --type should fail")
	}
}
