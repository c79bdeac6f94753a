package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

func TestHTTPProvider_Execute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/v2/objects/companies/records/query" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":{"record_id":"rec_1"}}]}`))
	}))
	defer ts.Close()

	p := NewHTTPProvider("attio", ts.URL, "test-key", 5*time.Second)
	defer p.Close()

	raw, err := p.Execute(context.Background(), Operation{
		Name:   "records.query",
		Method: http.MethodPost,
		Path:   "/v2/objects/companies/records/query",
		Body:   map[string]any{"limit": 10},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var envelope struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Errorf("got %d records, want 1", len(envelope.Data))
	}

	health := p.GetHealth()
	if !health.Available {
		t.Error("provider should be available after success")
	}
}

func TestHTTPProvider_StatusTagging(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"rate limited", 429, 429},
		{"forbidden", 403, 403},
		{"not found", 404, 404},
		{"server error", 500, 500},
		{"validation", 422, 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"upstream detail"}`))
			}))
			defer ts.Close()

			p := NewHTTPProvider("attio", ts.URL, "k", 5*time.Second)
			defer p.Close()

			_, err := p.Execute(context.Background(), Operation{
				Name:   "records.query",
				Method: http.MethodPost,
				Path:   "/query",
			})
			if err == nil {
				t.Fatal("expected error")
			}

			var se *remoteerr.StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error %v is not a StatusError", err)
			}
			if se.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", se.Status, tt.wantStatus)
			}
		})
	}
}

func TestHTTPProvider_ThrottleMarksMonitor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	p := NewHTTPProvider("attio", ts.URL, "k", 5*time.Second)
	defer p.Close()

	for i := 0; i < 6; i++ {
		_, _ = p.Execute(context.Background(), Operation{Name: "records.query", Method: http.MethodPost, Path: "/q"})
	}

	if status := p.Monitor.CheckStatus(); status != StatusThrottled {
		t.Errorf("monitor status = %s, want throttled", status)
	}
	if p.Monitor.GetRetryAfter() <= 0 {
		t.Error("expected positive retry-after window")
	}
}

func TestHTTPProvider_InvokeOverride(t *testing.T) {
	p := NewHTTPProvider("attio", "http://unused.invalid", "k", time.Second)
	defer p.Close()

	raw, err := p.Execute(context.Background(), Operation{
		Name: "custom",
		Invoke: func(ctx context.Context) (json.RawMessage, error) {
			return json.RawMessage(`{"ok":true}`), nil
		},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("unexpected result %s", raw)
	}
}

func TestEndpointMonitor_DetectThrottlePattern(t *testing.T) {
	em := NewEndpointMonitor()

	tests := []struct {
		message string
		expect  bool
	}{
		{"Rate limit exceeded for workspace", true},
		{"Too Many Requests", true},
		{"monthly request quota reached", true},
		{"record not found", false},
	}

	for _, tt := range tests {
		if got := em.DetectThrottlePattern(tt.message); got != tt.expect {
			t.Errorf("DetectThrottlePattern(%q) = %v, want %v", tt.message, got, tt.expect)
		}
	}
}
