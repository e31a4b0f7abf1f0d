package domain

// ─── Crisis Resources ───────────────────────────────────────────────────────

// ResourceType is how a crisis line is reached.
type ResourceType string

const (
	ResourceCrisis ResourceType = "crisis" // voice hotline
	ResourceText   ResourceType = "text"
	ResourceChat   ResourceType = "chat"
	ResourceLocal  ResourceType = "local"
)

// Known reports whether t is a supported resource type.
func (t ResourceType) Known() bool {
	switch t {
	case ResourceCrisis, ResourceText, ResourceChat, ResourceLocal:
		return true
	}
	return false
}

// CrisisResource is an emergency support line listed by the SOS screen.
type CrisisResource struct {
	ID           string       `json:"id" toml:"id" yaml:"id"`
	Name         string       `json:"name" toml:"name" yaml:"name"`
	Phone        string       `json:"phone,omitempty" toml:"phone" yaml:"phone"`
	URL          string       `json:"url,omitempty" toml:"url" yaml:"url"`
	Description  string       `json:"description,omitempty" toml:"description" yaml:"description"`
	Availability string       `json:"availability" toml:"availability" yaml:"availability"`
	Type         ResourceType `json:"type" toml:"type" yaml:"type"`
	Country      string       `json:"country,omitempty" toml:"country" yaml:"country"` // ISO 3166 alpha-2
}
