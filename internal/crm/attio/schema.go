// Package attio adapts CRM record operations onto the Attio REST API. It
// owns the field mapping and payload validation for each object, and the
// high-level record client composed from the resilient remote layer.
package attio

import "context"

// AttributeDef describes one attribute of a CRM object.
type AttributeDef struct {
	Slug     string `json:"api_slug"`
	Type     string `json:"type"`
	Required bool   `json:"is_required"`
	Writable bool   `json:"is_writable"`
}

// ObjectSchema is the attribute schema of one CRM object, keyed by slug.
type ObjectSchema struct {
	Object     string                  `json:"object"`
	Attributes map[string]AttributeDef `json:"attributes"`
}

// SchemaSource resolves object schemas. The live implementation fetches from
// the CRM; a cache decorator sits in front of it in production wiring.
type SchemaSource interface {
	GetObjectSchema(ctx context.Context, object string) (*ObjectSchema, error)
}

// HasAttribute reports whether slug exists on the object.
func (s *ObjectSchema) HasAttribute(slug string) bool {
	_, ok := s.Attributes[slug]
	return ok
}

// RequiredAttributes lists the slugs that must be present on create.
func (s *ObjectSchema) RequiredAttributes() []string {
	var required []string
	for slug, def := range s.Attributes {
		if def.Required {
			required = append(required, slug)
		}
	}
	return required
}
