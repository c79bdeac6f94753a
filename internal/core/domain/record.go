package domain

import "time"

// ResourceType identifies a CRM object family.
type ResourceType string

const (
	ResourceCompanies ResourceType = "companies"
	ResourcePeople    ResourceType = "people"
	ResourceDeals     ResourceType = "deals"
)

// KnownResourceTypes lists the objects the bridge ships mappings for.
// Workspaces can expose custom objects; those are resolved via the schema
// cache at runtime.
var KnownResourceTypes = map[ResourceType]bool{
	ResourceCompanies: true,
	ResourcePeople:    true,
	ResourceDeals:     true,
}

// Record is a CRM record as seen by the bridge: an identifier plus a flat
// attribute map keyed by attribute slug.
type Record struct {
	ID         string         `json:"id"`
	Resource   ResourceType   `json:"resource"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// BatchSummary aggregates per-item batch outcomes. Derived after the join,
// never mutated independently: Succeeded + Failed == Total.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
