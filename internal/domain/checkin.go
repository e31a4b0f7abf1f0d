package domain

import (
	"fmt"
	"time"
)

// ─── Mood Check-ins ─────────────────────────────────────────────────────────

// Check-in scores are slider values on a 1..10 scale.
const (
	MinScore = 1
	MaxScore = 10
)

// CheckIn is one self-reported wellbeing sample. Mood, Energy and Stress
// are required; Sleep is 0 when not reported.
type CheckIn struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Tag       MoodTag   `json:"tag,omitempty"`
	Mood      int       `json:"mood"`
	Energy    int       `json:"energy"`
	Stress    int       `json:"stress"`
	Sleep     int       `json:"sleep,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks every score; errors wrap ErrInvalidCheckIn.
func (c CheckIn) Validate() error {
	for _, s := range []struct {
		name  string
		v     int
		unset bool
	}{
		{"mood", c.Mood, false},
		{"energy", c.Energy, false},
		{"stress", c.Stress, false},
		{"sleep", c.Sleep, true},
	} {
		if s.unset && s.v == 0 {
			continue
		}
		if s.v < MinScore || s.v > MaxScore {
			return fmt.Errorf("%s %d not in %d..%d: %w", s.name, s.v, MinScore, MaxScore, ErrInvalidCheckIn)
		}
	}
	if len(c.Note) > 2000 {
		return fmt.Errorf("note longer than 2000 bytes: %w", ErrInvalidCheckIn)
	}
	return nil
}

// EffectiveTag is the mood tag recommendations use: the reported tag, or
// one read off the scores when none was given. Empty means no strong signal.
func (c CheckIn) EffectiveTag() MoodTag {
	if t := NormalizeTag(string(c.Tag)); t != "" {
		return MoodTag(t)
	}
	switch {
	case c.Stress >= 8:
		return "stressed"
	case c.Mood <= 3:
		return "sad"
	case c.Energy <= 3:
		return "tired"
	case c.Sleep != 0 && c.Sleep <= 3:
		return "restless"
	default:
		return ""
	}
}

// CheckInDay averages one calendar day of check-ins. Sleep averages only
// the check-ins that reported it.
type CheckInDay struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Count  int     `json:"count"`
	Mood   float64 `json:"mood,omitempty"`
	Energy float64 `json:"energy,omitempty"`
	Stress float64 `json:"stress,omitempty"`
	Sleep  float64 `json:"sleep,omitempty"`
}

// CheckInSummary is the trend view over a window of whole days.
type CheckInSummary struct {
	From     string       `json:"from"`
	To       string       `json:"to"`
	Count    int          `json:"count"`
	Averages CheckInDay   `json:"averages"`
	Days     []CheckInDay `json:"days"` // oldest first, one per day
	TopTag   MoodTag      `json:"top_tag,omitempty"`

	// MoodChange is the last recorded day's mood average minus the first's.
	MoodChange float64 `json:"mood_change"`
}
