package domain

import "strings"

// MoodTag is an open set of self-reported affective states ("anxious", "tired").
// Tags carry no ordering.
type MoodTag string

// NormalizeTag lowercases and trims a mood or category query.
func NormalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ContentKind distinguishes tracks from guided activities and coping tools.
type ContentKind string

const (
	KindTrack    ContentKind = "track"
	KindActivity ContentKind = "activity"
	KindTool     ContentKind = "tool"
)

// ContentCategory is the therapeutic focus of a content item.
type ContentCategory string

const (
	CategoryAnxiety     ContentCategory = "anxiety"
	CategoryDepression  ContentCategory = "depression"
	CategoryFocus       ContentCategory = "focus"
	CategorySleep       ContentCategory = "sleep"
	CategoryEnergy      ContentCategory = "energy"
	CategoryMeditation  ContentCategory = "meditation"
	CategoryCoping      ContentCategory = "coping"
	CategoryMindfulness ContentCategory = "mindfulness"
	CategoryPhysical    ContentCategory = "physical"
	CategorySocial      ContentCategory = "social"
)

// ContentItem is an immutable catalog entry the matcher recommends.
type ContentItem struct {
	ID              string          `json:"id" toml:"id" yaml:"id"`
	Title           string          `json:"title" toml:"title" yaml:"title"`
	Artist          string          `json:"artist,omitempty" toml:"artist" yaml:"artist"`
	Description     string          `json:"description,omitempty" toml:"description" yaml:"description"`
	Kind            ContentKind     `json:"kind" toml:"kind" yaml:"kind"`
	Category        ContentCategory `json:"category" toml:"category" yaml:"category"`
	Moods           []MoodTag       `json:"moods" toml:"moods" yaml:"moods"`
	DurationSeconds int             `json:"duration_seconds" toml:"duration_seconds" yaml:"duration_seconds"`
}

// HasMood reports whether tag is one of the item's applicable moods.
func (c ContentItem) HasMood(tag MoodTag) bool {
	for _, m := range c.Moods {
		if m == tag {
			return true
		}
	}
	return false
}
