package attio

import (
	"fmt"

	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

const (
	// DefaultQueryLimit is applied when the caller does not set one.
	DefaultQueryLimit = 25
	// MaxQueryLimit is the page-size cap for record queries.
	MaxQueryLimit = 500
)

// Query describes one record search. The filter is a flat attribute→value
// equality map; richer operators are expressed through the raw Filter field.
type Query struct {
	// Match maps attribute slug to the exact value to match. Entries are
	// validated against the object schema before the call goes out.
	Match map[string]any

	// Filter, when set, is passed through verbatim and takes precedence over
	// Match. Use for operators the equality map cannot express.
	Filter map[string]any

	// SortBy orders results by the named attribute; empty means API default.
	SortBy string
	// Descending flips the sort direction.
	Descending bool

	Limit  int
	Offset int
}

// queryPayload is the wire shape of POST .../records/query.
type queryPayload struct {
	Filter map[string]any   `json:"filter,omitempty"`
	Sorts  []map[string]any `json:"sorts,omitempty"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset,omitempty"`
}

// buildQueryPayload validates q against the schema and produces the request
// body. Unknown match attributes and out-of-range limits are validation
// failures; no remote call is made for them.
func buildQueryPayload(schema *ObjectSchema, q Query) (*queryPayload, error) {
	if q.Limit < 0 || q.Limit > MaxQueryLimit {
		return nil, &remoteerr.ValidationError{
			Detail: fmt.Sprintf("Query limit must be between 0 and %d.", MaxQueryLimit),
		}
	}
	if q.Offset < 0 {
		return nil, &remoteerr.ValidationError{Detail: "Query offset must not be negative."}
	}

	limit := q.Limit
	if limit == 0 {
		limit = DefaultQueryLimit
	}

	payload := &queryPayload{Limit: limit, Offset: q.Offset}

	switch {
	case q.Filter != nil:
		payload.Filter = q.Filter
	case len(q.Match) > 0:
		filter := make(map[string]any, len(q.Match))
		for slug, value := range q.Match {
			if !schema.HasAttribute(slug) {
				return nil, &remoteerr.ValidationError{
					Detail: fmt.Sprintf("Unknown filter attribute %q for object %q.", slug, schema.Object),
				}
			}
			filter[slug] = value
		}
		payload.Filter = filter
	}

	if q.SortBy != "" {
		if !schema.HasAttribute(q.SortBy) {
			return nil, &remoteerr.ValidationError{
				Detail: fmt.Sprintf("Unknown sort attribute %q for object %q.", q.SortBy, schema.Object),
			}
		}
		direction := "asc"
		if q.Descending {
			direction = "desc"
		}
		payload.Sorts = []map[string]any{{
			"attribute": q.SortBy,
			"direction": direction,
		}}
	}

	return payload, nil
}
