package attio

import (
	"strings"
	"testing"

	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"3f8a2b9e-4a9f-4f6a-9d4e-2f6c1a7b8c9d", false},
		{"rec-1", false},
		{"", true},
		{"a/b", true},
		{`a\b`, true},
		{"..", true},
		{"rec/../other", true},
		{strings.Repeat("x", maxIdentifierLength+1), true},
	}

	for _, tt := range tests {
		err := ValidateRecordID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRecordID(%q) error = %v, wantErr %t", tt.id, err, tt.wantErr)
		}
		if err != nil {
			if _, ok := err.(*remoteerr.ValidationError); !ok {
				t.Errorf("ValidateRecordID(%q) error type %T, want *ValidationError", tt.id, err)
			}
		}
	}
}

func TestMapAttributes_ValueShaping(t *testing.T) {
	schema := companySchema()

	values, err := MapAttributes(schema, map[string]any{
		"name": "Acme",
		"size": 50,
	}, true)
	if err != nil {
		t.Fatalf("MapAttributes: %v", err)
	}

	name, ok := values["name"].([]any)
	if !ok || len(name) != 1 {
		t.Fatalf("name = %#v, want single-element value list", values["name"])
	}
	entry, ok := name[0].(map[string]any)
	if !ok || entry["value"] != "Acme" {
		t.Errorf("name entry = %#v", name[0])
	}

	// Pre-shaped value lists pass through untouched.
	shaped := []any{map[string]any{"value": "a"}, map[string]any{"value": "b"}}
	values, err = MapAttributes(schema, map[string]any{"name": shaped}, true)
	if err != nil {
		t.Fatalf("MapAttributes: %v", err)
	}
	if got, ok := values["name"].([]any); !ok || len(got) != 2 {
		t.Errorf("pre-shaped value = %#v", values["name"])
	}
}

func TestMapAttributes_UnknownAndMissing(t *testing.T) {
	schema := companySchema()

	_, err := MapAttributes(schema, map[string]any{"bogus": 1, "name": "x"}, false)
	ve, ok := err.(*remoteerr.ValidationError)
	if !ok {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
	if !strings.Contains(ve.Detail, "bogus") {
		t.Errorf("detail should name the attribute: %q", ve.Detail)
	}

	_, err = MapAttributes(schema, map[string]any{"size": 3}, true)
	ve, ok = err.(*remoteerr.ValidationError)
	if !ok {
		t.Fatalf("error type %T, want *ValidationError", err)
	}
	if !strings.Contains(ve.Detail, "name") {
		t.Errorf("detail should name the missing attribute: %q", ve.Detail)
	}

	// Partial updates skip the required check.
	if _, err := MapAttributes(schema, map[string]any{"size": 3}, false); err != nil {
		t.Errorf("partial update should not require all attributes: %v", err)
	}
}

func TestBuildQueryPayload(t *testing.T) {
	schema := companySchema()

	payload, err := buildQueryPayload(schema, Query{
		Match:  map[string]any{"name": "Acme"},
		SortBy: "size", Descending: true,
		Limit: 10, Offset: 20,
	})
	if err != nil {
		t.Fatalf("buildQueryPayload: %v", err)
	}
	if payload.Limit != 10 || payload.Offset != 20 {
		t.Errorf("paging = %d/%d", payload.Limit, payload.Offset)
	}
	if payload.Filter["name"] != "Acme" {
		t.Errorf("filter = %v", payload.Filter)
	}
	if len(payload.Sorts) != 1 || payload.Sorts[0]["direction"] != "desc" {
		t.Errorf("sorts = %v", payload.Sorts)
	}

	// Validation failures
	for _, q := range []Query{
		{Limit: MaxQueryLimit + 1},
		{Offset: -1},
		{Match: map[string]any{"bogus": 1}},
		{SortBy: "bogus"},
	} {
		if _, err := buildQueryPayload(schema, q); err == nil {
			t.Errorf("buildQueryPayload(%+v) should fail", q)
		}
	}

	// Raw filter takes precedence and bypasses slug validation.
	payload, err = buildQueryPayload(schema, Query{
		Filter: map[string]any{"$or": []any{}},
		Match:  map[string]any{"name": "ignored"},
	})
	if err != nil {
		t.Fatalf("buildQueryPayload: %v", err)
	}
	if _, ok := payload.Filter["$or"]; !ok {
		t.Errorf("raw filter should pass through: %v", payload.Filter)
	}
}
