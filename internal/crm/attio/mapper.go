package attio

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

// maxIdentifierLength bounds record identifiers; Attio record IDs are UUIDs
// but callers may pass arbitrary strings.
const maxIdentifierLength = 64

// ValidateRecordID rejects identifiers that are empty, oversized or contain
// path separators. Failures classify as validation.
func ValidateRecordID(recordID string) error {
	if recordID == "" {
		return &remoteerr.ValidationError{Detail: "Record identifier must not be empty."}
	}
	if len(recordID) > maxIdentifierLength {
		return &remoteerr.ValidationError{
			Detail: fmt.Sprintf("Record identifier exceeds %d characters.", maxIdentifierLength),
		}
	}
	if strings.ContainsAny(recordID, "/\\") || strings.Contains(recordID, "..") {
		return &remoteerr.ValidationError{Detail: "Record identifier contains invalid characters."}
	}
	return nil
}

// MapAttributes validates a flat attribute map against the object schema and
// converts it to the CRM "values" payload shape. When requireAll is set
// (record creation), missing required attributes are rejected.
func MapAttributes(schema *ObjectSchema, attributes map[string]any, requireAll bool) (map[string]any, error) {
	if len(attributes) == 0 && requireAll && len(schema.RequiredAttributes()) > 0 {
		return nil, &remoteerr.ValidationError{Detail: "At least the required attributes must be provided."}
	}

	var unknown []string
	for slug := range attributes {
		if !schema.HasAttribute(slug) {
			unknown = append(unknown, slug)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &remoteerr.ValidationError{
			Detail: fmt.Sprintf("Unknown attributes for object %q: %s.", schema.Object, strings.Join(unknown, ", ")),
		}
	}

	if requireAll {
		var missing []string
		for _, slug := range schema.RequiredAttributes() {
			if _, ok := attributes[slug]; !ok {
				missing = append(missing, slug)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, &remoteerr.ValidationError{
				Detail: fmt.Sprintf("Missing required attributes for object %q: %s.", schema.Object, strings.Join(missing, ", ")),
			}
		}
	}

	// Attio expects each value as a list of value objects.
	values := make(map[string]any, len(attributes))
	for slug, v := range attributes {
		switch v.(type) {
		case []any:
			values[slug] = v
		default:
			values[slug] = []any{map[string]any{"value": v}}
		}
	}

	return values, nil
}
