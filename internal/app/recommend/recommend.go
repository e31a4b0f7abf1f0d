// Package recommend maps a reported mood or category onto content items.
// Matching is a pure filter over the catalog: results keep catalog order,
// so identical inputs always yield identical output.
package recommend

import (
	"slices"

	"github.com/genyouth/wellness/internal/domain"
)

// Recommend returns the items whose moods contain query or whose category
// equals it, in catalog order. limit <= 0 returns every match. No match is
// an empty, non-nil slice. Returned items share no memory with catalog.
func Recommend(query string, catalog []domain.ContentItem, limit int) []domain.ContentItem {
	q := domain.NormalizeTag(query)
	out := make([]domain.ContentItem, 0)
	if q == "" {
		return out
	}
	for _, item := range catalog {
		if !matches(item, q) {
			continue
		}
		out = append(out, clone(item))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func clone(item domain.ContentItem) domain.ContentItem {
	item.Moods = slices.Clone(item.Moods)
	return item
}

func matches(item domain.ContentItem, q string) bool {
	return string(item.Category) == q || item.HasMood(domain.MoodTag(q))
}

// ─── Matcher ────────────────────────────────────────────────────────────────

// Matcher holds an immutable catalog. All methods are safe for concurrent use.
type Matcher struct {
	items []domain.ContentItem
	byID  map[string]int
	moods []domain.MoodTag
}

// NewMatcher copies items; later changes to the slice do not affect the matcher.
func NewMatcher(items []domain.ContentItem) *Matcher {
	m := &Matcher{
		items: make([]domain.ContentItem, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	seen := make(map[domain.MoodTag]bool)
	for i, it := range items {
		it = clone(it)
		m.items[i] = it
		m.byID[it.ID] = i
		for _, mood := range it.Moods {
			if !seen[mood] {
				seen[mood] = true
				m.moods = append(m.moods, mood)
			}
		}
	}
	return m
}

// Recommend runs Recommend over the matcher's catalog.
func (m *Matcher) Recommend(query string, limit int) []domain.ContentItem {
	return Recommend(query, m.items, limit)
}

// ByKind lists items of one kind in catalog order. An empty kind lists all.
func (m *Matcher) ByKind(kind domain.ContentKind) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(m.items))
	for _, it := range m.items {
		if kind == "" || it.Kind == kind {
			out = append(out, clone(it))
		}
	}
	return out
}

// Moods returns the distinct mood tags in first-seen order.
func (m *Matcher) Moods() []domain.MoodTag {
	return append([]domain.MoodTag(nil), m.moods...)
}

// Lookup returns the item with the given id, or nil.
func (m *Matcher) Lookup(id string) *domain.ContentItem {
	i, ok := m.byID[id]
	if !ok {
		return nil
	}
	it := clone(m.items[i])
	return &it
}

// Len is the number of items in the catalog.
func (m *Matcher) Len() int { return len(m.items) }
