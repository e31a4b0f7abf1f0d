// Package catalog provides the static definitions the service is built on:
// achievements, challenges, milestones, the content the matcher recommends
// and the crisis resource directory.
// A built-in catalog ships with the binary; operators can replace it with a
// TOML or YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/genyouth/wellness/internal/domain"
)

// Catalog is the full set of immutable definitions.
type Catalog struct {
	Achievements []domain.AchievementDef `json:"achievements" toml:"achievements" yaml:"achievements"`
	Challenges   []domain.ChallengeDef   `json:"challenges" toml:"challenges" yaml:"challenges"`
	Milestones   []domain.MilestoneDef   `json:"milestones" toml:"milestones" yaml:"milestones"`
	Content      []domain.ContentItem    `json:"content" toml:"content" yaml:"content"`
	Resources    []domain.CrisisResource `json:"resources" toml:"resources" yaml:"resources"`
}

// Definitions returns the progression part of the catalog.
func (c *Catalog) Definitions() domain.Definitions {
	return domain.Definitions{
		Achievements: c.Achievements,
		Challenges:   c.Challenges,
		Milestones:   c.Milestones,
	}
}

// Load reads a catalog file. The format is chosen by extension:
// .toml, .yaml or .yml. Mood tags are normalized and the result validated.
// A file without resources keeps the built-in crisis directory.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("catalog %s: unsupported format %q", path, filepath.Ext(path))
	}

	if len(c.Resources) == 0 {
		c.Resources = defaultResources()
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault loads path, or returns the built-in catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func (c *Catalog) normalize() {
	for i := range c.Content {
		item := &c.Content[i]
		item.Category = domain.ContentCategory(domain.NormalizeTag(string(item.Category)))
		for j, m := range item.Moods {
			item.Moods[j] = domain.MoodTag(domain.NormalizeTag(string(m)))
		}
	}
	for i := range c.Resources {
		r := &c.Resources[i]
		r.Type = domain.ResourceType(domain.NormalizeTag(string(r.Type)))
		r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	}
}

// Validate checks every definition and reports all problems at once,
// wrapped in domain.ErrInvalidCatalog.
func (c *Catalog) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	seen := make(map[string]bool)
	for _, a := range c.Achievements {
		if a.ID == "" {
			add("achievement with empty id")
		} else if seen[a.ID] {
			add("duplicate achievement %q", a.ID)
		}
		seen[a.ID] = true
		if a.Points < 0 {
			add("achievement %q: negative points %d", a.ID, a.Points)
		}
		if !a.Condition.Kind.Known() {
			add("achievement %q: unknown condition %q", a.ID, a.Condition.Kind)
		}
	}

	seen = make(map[string]bool)
	for _, ch := range c.Challenges {
		if ch.ID == "" {
			add("challenge with empty id")
		} else if seen[ch.ID] {
			add("duplicate challenge %q", ch.ID)
		}
		seen[ch.ID] = true
		if !ch.Category.Known() {
			add("challenge %q: unknown category %q", ch.ID, ch.Category)
		}
		if ch.Target <= 0 {
			add("challenge %q: target must be positive", ch.ID)
		}
		if ch.Points < 0 {
			add("challenge %q: negative points %d", ch.ID, ch.Points)
		}
	}

	seen = make(map[string]bool)
	var prev int64 = -1
	for _, m := range c.Milestones {
		if m.ID == "" {
			add("milestone with empty id")
		} else if seen[m.ID] {
			add("duplicate milestone %q", m.ID)
		}
		seen[m.ID] = true
		if m.RequiredPoints <= prev {
			add("milestone %q: threshold %d not above %d", m.ID, m.RequiredPoints, prev)
		}
		prev = m.RequiredPoints
	}

	seen = make(map[string]bool)
	for _, it := range c.Content {
		if it.ID == "" {
			add("content with empty id")
		} else if seen[it.ID] {
			add("duplicate content %q", it.ID)
		}
		seen[it.ID] = true
		switch it.Kind {
		case domain.KindTrack, domain.KindActivity, domain.KindTool:
		default:
			add("content %q: unknown kind %q", it.ID, it.Kind)
		}
		if it.DurationSeconds <= 0 {
			add("content %q: duration must be positive", it.ID)
		}
	}

	seen = make(map[string]bool)
	for _, r := range c.Resources {
		if r.ID == "" {
			add("resource with empty id")
		} else if seen[r.ID] {
			add("duplicate resource %q", r.ID)
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.Name) == "" {
			add("resource %q: name is required", r.ID)
		}
		if r.Phone == "" && r.URL == "" {
			add("resource %q: needs a phone or url", r.ID)
		}
		if !r.Type.Known() {
			add("resource %q: unknown type %q", r.ID, r.Type)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Encode writes the catalog as TOML. Used by `wellness catalog export`.
func (c *Catalog) Encode(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return nil
}

// ResourcesFor lists crisis resources for a country and type, in catalog
// order. Resources without a country apply everywhere; empty filters
// match all.
func (c *Catalog) ResourcesFor(country string, typ domain.ResourceType) []domain.CrisisResource {
	country = strings.ToUpper(strings.TrimSpace(country))
	out := make([]domain.CrisisResource, 0, len(c.Resources))
	for _, r := range c.Resources {
		if country != "" && r.Country != "" && r.Country != country {
			continue
		}
		if typ != "" && r.Type != typ {
			continue
		}
		out = append(out, r)
	}
	return out
}
