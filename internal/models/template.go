package models

// TemplateItem is one task blueprint inside a template. TimeOffset is a
// time of day ("15:04"), not a duration.
type TemplateItem struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Category    string   `json:"category" yaml:"category"`
	Priority    Priority `json:"priority" yaml:"priority"`
	TimeOffset  string   `json:"timeOffset" yaml:"timeOffset"`
}

// TaskTemplate is a reusable, named checklist used to batch-generate tasks.
type TaskTemplate struct {
	ID             string         `json:"id" yaml:"id,omitempty"`
	OrganizationID string         `json:"organizationId" yaml:"-"`
	Name           string         `json:"name" yaml:"name"`
	Items          []TemplateItem `json:"items" yaml:"items"`
}
