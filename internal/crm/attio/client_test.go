package attio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/budget"
	"github.com/vietddude/crmbridge/internal/infra/remote/provider"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
	"github.com/vietddude/crmbridge/internal/infra/remote/resilience"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// noRetry keeps tests fast and call counts deterministic.
var noRetry = resilience.RetryPolicy{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := provider.NewHTTPProvider("attio-test", srv.URL, "test-key", 5*time.Second)
	return NewClient(p, nil, nil, noRetry, testLog), srv
}

// staticSchemas avoids a remote schema fetch in record-operation tests.
type staticSchemas struct {
	schema *ObjectSchema
}

func (s staticSchemas) GetObjectSchema(_ context.Context, _ string) (*ObjectSchema, error) {
	return s.schema, nil
}

func companySchema() *ObjectSchema {
	return &ObjectSchema{
		Object: "companies",
		Attributes: map[string]AttributeDef{
			"name":    {Slug: "name", Type: "text", Required: true, Writable: true},
			"domains": {Slug: "domains", Type: "domain", Writable: true},
			"size":    {Slug: "size", Type: "number", Writable: true},
		},
	}
}

func TestClient_GetObjectSchema(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/objects/companies/attributes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"api_slug": "name", "type": "text", "is_required": true, "is_writable": true},
				{"api_slug": "domains", "type": "domain", "is_required": false, "is_writable": true},
			},
		})
	}))

	schema, err := client.GetObjectSchema(context.Background(), "companies")
	if err != nil {
		t.Fatalf("GetObjectSchema: %v", err)
	}
	if !schema.HasAttribute("name") || !schema.HasAttribute("domains") {
		t.Errorf("schema missing attributes: %+v", schema.Attributes)
	}
	required := schema.RequiredAttributes()
	if len(required) != 1 || required[0] != "name" {
		t.Errorf("required = %v, want [name]", required)
	}
}

func TestClient_SearchRecords(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/objects/companies/records/query" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload queryPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Limit != DefaultQueryLimit {
			t.Errorf("limit = %d, want default %d", payload.Limit, DefaultQueryLimit)
		}
		if payload.Filter["name"] != "Acme" {
			t.Errorf("filter = %v", payload.Filter)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{
					"id":         map[string]any{"record_id": "rec-1"},
					"values":     map[string]any{"name": []map[string]any{{"value": "Acme"}}},
					"created_at": "2026-08-01T10:00:00Z",
				},
			},
		})
	}))

	records, err := client.SearchRecords(context.Background(),
		staticSchemas{companySchema()}, domain.ResourceCompanies,
		Query{Match: map[string]any{"name": "Acme"}})
	if err != nil {
		t.Fatalf("SearchRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ID != "rec-1" || records[0].Attributes["name"] != "Acme" {
		t.Errorf("record = %+v", records[0])
	}
	if records[0].Resource != domain.ResourceCompanies {
		t.Errorf("resource = %s", records[0].Resource)
	}
}

func TestClient_SearchRecords_UnknownFilterAttribute(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.SearchRecords(context.Background(),
		staticSchemas{companySchema()}, domain.ResourceCompanies,
		Query{Match: map[string]any{"bogus": 1}})

	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type %T, want *RemoteError", err)
	}
	if re.Classification != domain.ClassValidation {
		t.Errorf("classification = %s, want validation", re.Classification)
	}
	if calls.Load() != 0 {
		t.Errorf("remote was called %d times for a local validation failure", calls.Load())
	}
}

func TestClient_CreateRecord_MissingRequired(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.CreateRecord(context.Background(),
		staticSchemas{companySchema()}, domain.ResourceCompanies,
		map[string]any{"size": 10})

	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type %T, want *RemoteError", err)
	}
	if re.Classification != domain.ClassValidation {
		t.Errorf("classification = %s, want validation", re.Classification)
	}
	if calls.Load() != 0 {
		t.Error("remote should not be called when required attributes are missing")
	}
}

func TestClient_CreateRecord(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data struct {
				Values map[string]any `json:"values"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if _, ok := body.Data.Values["name"]; !ok {
			t.Errorf("values missing name: %v", body.Data.Values)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"id":     map[string]any{"record_id": "rec-new"},
				"values": map[string]any{"name": []map[string]any{{"value": "Globex"}}},
			},
		})
	}))

	rec, err := client.CreateRecord(context.Background(),
		staticSchemas{companySchema()}, domain.ResourceCompanies,
		map[string]any{"name": "Globex"})
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if rec.ID != "rec-new" || rec.Attributes["name"] != "Globex" {
		t.Errorf("record = %+v", rec)
	}
}

func TestClient_UpdateRecord_BadRecordID(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	for _, id := range []string{"", "a/b", `a\b`, "..", "rec/../secret"} {
		_, err := client.UpdateRecord(context.Background(),
			staticSchemas{companySchema()}, domain.ResourceCompanies, id,
			map[string]any{"name": "x"})

		var re *remoteerr.RemoteError
		if !errors.As(err, &re) {
			t.Fatalf("id %q: error type %T, want *RemoteError", id, err)
		}
		if re.Classification != domain.ClassValidation {
			t.Errorf("id %q: classification = %s, want validation", id, re.Classification)
		}
	}
	if calls.Load() != 0 {
		t.Error("remote should not be called for invalid record IDs")
	}
}

func TestClient_DeleteRecord_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := client.DeleteRecord(context.Background(), domain.ResourceCompanies, "rec-missing")

	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type %T, want *RemoteError", err)
	}
	if re.Classification != domain.ClassNotFound || re.Status != 404 {
		t.Errorf("got %s/%d, want not_found/404", re.Classification, re.Status)
	}
}

func TestClient_AssertRecord(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if got := r.URL.Query().Get("matching_attribute"); got != "domains" {
			t.Errorf("matching_attribute = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"id":     map[string]any{"record_id": "rec-up"},
				"values": map[string]any{"domains": []map[string]any{{"value": "acme.io"}}},
			},
		})
	}))

	rec, err := client.AssertRecord(context.Background(),
		staticSchemas{companySchema()}, domain.ResourceCompanies, "domains",
		map[string]any{"domains": "acme.io", "name": "Acme"})
	if err != nil {
		t.Fatalf("AssertRecord: %v", err)
	}
	if rec.ID != "rec-up" {
		t.Errorf("record = %+v", rec)
	}
}

func TestClient_AssertRecord_MatchAttributeMissing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("remote should not be called")
	}))

	_, err := client.AssertRecord(context.Background(),
		staticSchemas{companySchema()}, domain.ResourceCompanies, "domains",
		map[string]any{"name": "Acme"})

	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type %T, want *RemoteError", err)
	}
	if re.Classification != domain.ClassValidation {
		t.Errorf("classification = %s, want validation", re.Classification)
	}
}

func TestClient_QuotaExhaustedFailsWithoutCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	tracker := budget.NewTracker(1)
	tracker.RecordCall("records.query", 1)

	p := provider.NewHTTPProvider("attio-test", srv.URL, "test-key", 5*time.Second)
	client := NewClient(p, nil, tracker, noRetry, testLog)

	err := client.DeleteRecord(context.Background(), domain.ResourceCompanies, "rec-1")

	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type %T, want *RemoteError", err)
	}
	if re.Classification != domain.ClassRateLimited {
		t.Errorf("classification = %s, want rate_limited", re.Classification)
	}
	if calls.Load() != 0 {
		t.Error("remote should not be called once quota is exhausted")
	}
}

func TestClient_FailedAttemptsConsumeBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	tracker := budget.NewTracker(100)
	p := provider.NewHTTPProvider("attio-test", srv.URL, "test-key", 5*time.Second)
	retry := resilience.RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	client := NewClient(p, nil, tracker, retry, testLog)

	if err := client.DeleteRecord(context.Background(), domain.ResourceCompanies, "rec-1"); err == nil {
		t.Fatal("expected failure")
	}

	attempts := int(calls.Load())
	if attempts != 4 {
		t.Fatalf("upstream attempts = %d, want 4 (1 + 3 retries)", attempts)
	}
	if got := tracker.GetUsage().TotalCalls; got != attempts {
		t.Errorf("budget TotalCalls = %d, want %d: every real attempt must consume quota", got, attempts)
	}
}

func TestClient_BreakerOpenFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	breaker := resilience.NewBreaker("attio-test", resilience.BreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	})
	tracker := budget.NewTracker(100)
	p := provider.NewHTTPProvider("attio-test", srv.URL, "test-key", 5*time.Second)
	client := NewClient(p, breaker, tracker, noRetry, testLog)

	for i := 0; i < 2; i++ {
		if err := client.DeleteRecord(context.Background(), domain.ResourceCompanies, "rec-1"); err == nil {
			t.Fatal("expected failure")
		}
	}
	before := calls.Load()
	budgetBefore := tracker.GetUsage().TotalCalls

	err := client.DeleteRecord(context.Background(), domain.ResourceCompanies, "rec-1")
	var re *remoteerr.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("error type %T, want *RemoteError", err)
	}
	if re.Classification != domain.ClassUnknown || re.Status != 503 {
		t.Errorf("got %s/%d, want unknown/503", re.Classification, re.Status)
	}
	if calls.Load() != before {
		t.Error("open breaker must not reach the remote")
	}
	if tracker.GetUsage().TotalCalls != budgetBefore {
		t.Error("fast failures must not consume budget")
	}
}

func TestWireRecord_Flattening(t *testing.T) {
	w := wireRecord{
		Values: map[string][]map[string]any{
			"name":  {{"value": "Acme"}},
			"tags":  {{"value": "a"}, {"value": "b"}},
			"empty": {},
		},
	}
	w.ID.RecordID = "rec-9"

	rec := w.toRecord(domain.ResourcePeople)
	if rec.Attributes["name"] != "Acme" {
		t.Errorf("single value should flatten, got %v", rec.Attributes["name"])
	}
	if _, ok := rec.Attributes["tags"].([]map[string]any); !ok {
		t.Errorf("multi value should be kept, got %T", rec.Attributes["tags"])
	}
	if _, ok := rec.Attributes["empty"]; ok {
		t.Error("empty value list should be dropped")
	}
}
