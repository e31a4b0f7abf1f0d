// Package domain holds the pure types shared by the progression ledger,
// the recommendation matcher and the host layer around them.
// Nothing in here touches storage, the network or the clock.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ─── Streak ─────────────────────────────────────────────────────────────────

// Streak tracks consecutive calendar days with at least one logged activity.
// Longest is never smaller than Current.
type Streak struct {
	Current  int       `json:"current"`
	Longest  int       `json:"longest"`
	LastDate time.Time `json:"last_date"` // Calendar day (UTC midnight); zero if nothing logged
}

// ─── Rarity ─────────────────────────────────────────────────────────────────

// Rarity is the ordered display tier of an achievement.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
)

var rarityNames = [...]string{"common", "rare", "epic", "legendary"}

func (r Rarity) String() string {
	if r < RarityCommon || r > RarityLegendary {
		return fmt.Sprintf("rarity(%d)", int(r))
	}
	return rarityNames[r]
}

// ParseRarity maps a tier name to its Rarity.
func ParseRarity(s string) (Rarity, error) {
	for i, name := range rarityNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Rarity(i), nil
		}
	}
	return RarityCommon, fmt.Errorf("unknown rarity %q", s)
}

// MarshalText encodes the rarity as its lowercase name.
func (r Rarity) MarshalText() ([]byte, error) {
	if r < RarityCommon || r > RarityLegendary {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a rarity name. Used by the JSON, TOML and YAML loaders.
func (r *Rarity) UnmarshalText(b []byte) error {
	parsed, err := ParseRarity(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ─── Unlock Conditions ──────────────────────────────────────────────────────

// ConditionKind names the ledger statistic a condition compares against.
type ConditionKind string

const (
	CondPointsAtLeast               ConditionKind = "points_at_least"
	CondStreakAtLeast               ConditionKind = "streak_at_least"
	CondLongestStreakAtLeast        ConditionKind = "longest_streak_at_least"
	CondActivitiesAtLeast           ConditionKind = "activities_at_least"
	CondActivityMinutesAtLeast      ConditionKind = "activity_minutes_at_least"
	CondChallengesCompletedAtLeast  ConditionKind = "challenges_completed_at_least"
	CondAchievementsUnlockedAtLeast ConditionKind = "achievements_unlocked_at_least"
)

// Known reports whether k is one of the supported condition kinds.
func (k ConditionKind) Known() bool {
	switch k {
	case CondPointsAtLeast, CondStreakAtLeast, CondLongestStreakAtLeast,
		CondActivitiesAtLeast, CondActivityMinutesAtLeast,
		CondChallengesCompletedAtLeast, CondAchievementsUnlockedAtLeast:
		return true
	}
	return false
}

// Condition is a threshold predicate over LedgerStats.
type Condition struct {
	Kind      ConditionKind `json:"kind" toml:"kind" yaml:"kind"`
	Threshold int64         `json:"threshold" toml:"threshold" yaml:"threshold"`
}

// Met evaluates the condition. Unknown kinds never match.
func (c Condition) Met(s LedgerStats) bool {
	var v int64
	switch c.Kind {
	case CondPointsAtLeast:
		v = s.Points
	case CondStreakAtLeast:
		v = int64(s.CurrentStreak)
	case CondLongestStreakAtLeast:
		v = int64(s.LongestStreak)
	case CondActivitiesAtLeast:
		v = s.Activities
	case CondActivityMinutesAtLeast:
		v = s.ActivityMinutes
	case CondChallengesCompletedAtLeast:
		v = s.ChallengesCompleted
	case CondAchievementsUnlockedAtLeast:
		v = int64(s.AchievementsUnlocked)
	default:
		return false
	}
	return v >= c.Threshold
}

// ReferencesPoints is true when the condition depends on the point balance.
// Only these conditions are re-checked after a points award.
func (c Condition) ReferencesPoints() bool {
	return c.Kind == CondPointsAtLeast
}

// LedgerStats is the flat view of ledger state fed to unlock conditions.
type LedgerStats struct {
	Points               int64 `json:"points"`
	CurrentStreak        int   `json:"current_streak"`
	LongestStreak        int   `json:"longest_streak"`
	Activities           int64 `json:"activities"`
	ActivityMinutes      int64 `json:"activity_minutes"`
	ChallengesCompleted  int64 `json:"challenges_completed"`
	AchievementsUnlocked int   `json:"achievements_unlocked"`
}

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementCategory groups achievements for display.
type AchievementCategory string

const (
	CatWellness    AchievementCategory = "wellness"
	CatSocial      AchievementCategory = "social"
	CatConsistency AchievementCategory = "consistency"
	CatMilestone   AchievementCategory = "milestone"
)

// AchievementDef is an immutable catalog entry.
type AchievementDef struct {
	ID          string              `json:"id" toml:"id" yaml:"id"`
	Title       string              `json:"title" toml:"title" yaml:"title"`
	Description string              `json:"description" toml:"description" yaml:"description"`
	Icon        string              `json:"icon,omitempty" toml:"icon" yaml:"icon"`
	Category    AchievementCategory `json:"category" toml:"category" yaml:"category"`
	Points      int64               `json:"points" toml:"points" yaml:"points"`
	Rarity      Rarity              `json:"rarity" toml:"rarity" yaml:"rarity"`
	Condition   Condition           `json:"condition" toml:"condition" yaml:"condition"`
}

// AchievementState is the per-user unlock record of one achievement.
type AchievementState struct {
	ID         string    `json:"id"`
	Unlocked   bool      `json:"unlocked"`
	UnlockedAt time.Time `json:"unlocked_at,omitempty"`
}

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengeCategory selects the period window a challenge resets on.
type ChallengeCategory string

const (
	ChallengeDaily   ChallengeCategory = "daily"
	ChallengeWeekly  ChallengeCategory = "weekly"
	ChallengeMonthly ChallengeCategory = "monthly"
)

// Known reports whether c is daily, weekly or monthly.
func (c ChallengeCategory) Known() bool {
	return c == ChallengeDaily || c == ChallengeWeekly || c == ChallengeMonthly
}

// ChallengeDef is the catalog definition of a recurring challenge.
type ChallengeDef struct {
	ID          string            `json:"id" toml:"id" yaml:"id"`
	Title       string            `json:"title" toml:"title" yaml:"title"`
	Description string            `json:"description" toml:"description" yaml:"description"`
	Category    ChallengeCategory `json:"category" toml:"category" yaml:"category"`
	Target      int               `json:"target" toml:"target" yaml:"target"`
	Points      int64             `json:"points" toml:"points" yaml:"points"`
}

// ChallengeState is the per-user progress of a challenge in its current period.
// Progress never exceeds Target.
type ChallengeState struct {
	ID          string            `json:"id"`
	Category    ChallengeCategory `json:"category"`
	Progress    int               `json:"progress"`
	Target      int               `json:"target"`
	Points      int64             `json:"points"`
	Completed   bool              `json:"completed"`
	CompletedAt time.Time         `json:"completed_at,omitempty"`
	PeriodKey   string            `json:"period_key"`
}

// ProgressPct returns completion percentage (0-100).
func (c ChallengeState) ProgressPct() float64 {
	if c.Target <= 0 {
		return 100.0
	}
	pct := float64(c.Progress) / float64(c.Target) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// ─── Milestones ─────────────────────────────────────────────────────────────

// MilestoneDef is a point threshold with rewards. Thresholds strictly
// increase along the catalog order.
type MilestoneDef struct {
	ID             string   `json:"id" toml:"id" yaml:"id"`
	Title          string   `json:"title" toml:"title" yaml:"title"`
	Description    string   `json:"description" toml:"description" yaml:"description"`
	RequiredPoints int64    `json:"required_points" toml:"required_points" yaml:"required_points"`
	Rewards        []string `json:"rewards" toml:"rewards" yaml:"rewards"`
}

// MilestoneState is the per-user unlock record of one milestone.
type MilestoneState struct {
	ID         string    `json:"id"`
	Unlocked   bool      `json:"unlocked"`
	UnlockedAt time.Time `json:"unlocked_at,omitempty"`
}

// ─── Level ──────────────────────────────────────────────────────────────────

// Level is derived from the point balance; it is never stored.
type Level struct {
	Level           int     `json:"level"`
	PointsToNext    int64   `json:"points_to_next"`
	NextLevelPoints int64   `json:"next_level_points"`
	ProgressPct     float64 `json:"progress_pct"`
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// Snapshot is a read-only copy of one user's ledger. It is also the unit
// the host persists and restores.
type Snapshot struct {
	Points              int64              `json:"points"`
	Streak              Streak             `json:"streak"`
	Activities          int64              `json:"activities"`
	ActivityMinutes     int64              `json:"activity_minutes"`
	ChallengesCompleted int64              `json:"challenges_completed"`
	Level               Level              `json:"level"`
	Achievements        []AchievementState `json:"achievements"`
	Challenges          []ChallengeState   `json:"challenges"`
	Milestones          []MilestoneState   `json:"milestones"`
}

// UnlockedAchievements counts unlocked achievement states.
func (s Snapshot) UnlockedAchievements() int {
	n := 0
	for _, a := range s.Achievements {
		if a.Unlocked {
			n++
		}
	}
	return n
}

// ─── Events ─────────────────────────────────────────────────────────────────

// EventKind categorizes ledger events.
type EventKind string

const (
	EventAchievementUnlocked EventKind = "achievement_unlocked"
	EventMilestoneUnlocked   EventKind = "milestone_unlocked"
	EventChallengeCompleted  EventKind = "challenge_completed"
	EventLevelUp             EventKind = "level_up"
)

// Event is emitted by the ledger on every one-way transition.
type Event struct {
	Kind   EventKind `json:"kind"`
	RefID  string    `json:"ref_id"`
	Title  string    `json:"title"`
	Points int64     `json:"points"`
	At     time.Time `json:"at"`
}

// PointAward records a single increment of the balance, for the audit trail.
type PointAward struct {
	Amount int64     `json:"amount"`
	Source string    `json:"source"`
	RefID  string    `json:"ref_id,omitempty"`
	At     time.Time `json:"at"`
}

// Point sources used by the ledger itself.
const (
	SourceManual      = "manual"
	SourceAchievement = "achievement"
	SourceChallenge   = "challenge"
)

// Definitions is the static progression catalog a ledger is built from.
type Definitions struct {
	Achievements []AchievementDef `json:"achievements"`
	Challenges   []ChallengeDef   `json:"challenges"`
	Milestones   []MilestoneDef   `json:"milestones"`
}
