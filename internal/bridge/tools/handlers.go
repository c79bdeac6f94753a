package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/crmbridge/internal/bridge/metrics"
	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/crm/attio"
	"github.com/vietddude/crmbridge/internal/infra/remote/batch"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
	"github.com/vietddude/crmbridge/internal/infra/storage"
)

// Handlers binds the record tools to the CRM client and the audit store.
type Handlers struct {
	client  *attio.Client
	schemas attio.SchemaSource
	audit   storage.AuditRepository
	batch   batch.Options
	log     *slog.Logger
}

// NewHandlers creates the tool handlers.
func NewHandlers(client *attio.Client, schemas attio.SchemaSource, audit storage.AuditRepository, batchOpts batch.Options, log *slog.Logger) *Handlers {
	return &Handlers{
		client:  client,
		schemas: schemas,
		audit:   audit,
		batch:   batchOpts,
		log:     log,
	}
}

// RegisterAll registers every record tool on the registry.
func (h *Handlers) RegisterAll(r *Registry) {
	r.Register("records.search", h.Search)
	r.Register("records.create", h.Create)
	r.Register("records.update", h.Update)
	r.Register("records.delete", h.Delete)
	r.Register("records.assert", h.Assert)
	r.Register("records.batch_search", h.BatchSearch)
}

type searchParams struct {
	Resource string         `json:"resource"`
	Match    map[string]any `json:"match,omitempty"`
	Filter   map[string]any `json:"filter,omitempty"`
	SortBy   string         `json:"sortBy,omitempty"`
	Desc     bool           `json:"descending,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

func (p searchParams) query() attio.Query {
	return attio.Query{
		Match:      p.Match,
		Filter:     p.Filter,
		SortBy:     p.SortBy,
		Descending: p.Desc,
		Limit:      p.Limit,
		Offset:     p.Offset,
	}
}

type writeParams struct {
	Resource       string         `json:"resource"`
	RecordID       string         `json:"recordId,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
	MatchAttribute string         `json:"matchAttribute,omitempty"`
}

type batchSearchParams struct {
	Resource string         `json:"resource"`
	Items    []searchParams `json:"items"`
}

// Search handles records.search.
func (h *Handlers) Search(ctx context.Context, req *Request) (any, error) {
	var p searchParams
	if err := h.decode(req, &p); err != nil {
		return nil, err
	}

	return h.observe(ctx, req, "records.search", p.Resource, func(ctx context.Context) (any, error) {
		return h.client.SearchRecords(ctx, h.schemas, domain.ResourceType(p.Resource), p.query())
	})
}

// Create handles records.create.
func (h *Handlers) Create(ctx context.Context, req *Request) (any, error) {
	var p writeParams
	if err := h.decode(req, &p); err != nil {
		return nil, err
	}

	return h.observe(ctx, req, "records.create", p.Resource, func(ctx context.Context) (any, error) {
		return h.client.CreateRecord(ctx, h.schemas, domain.ResourceType(p.Resource), p.Attributes)
	})
}

// Update handles records.update.
func (h *Handlers) Update(ctx context.Context, req *Request) (any, error) {
	var p writeParams
	if err := h.decode(req, &p); err != nil {
		return nil, err
	}

	return h.observe(ctx, req, "records.update", p.Resource, func(ctx context.Context) (any, error) {
		return h.client.UpdateRecord(ctx, h.schemas, domain.ResourceType(p.Resource), p.RecordID, p.Attributes)
	})
}

// Delete handles records.delete.
func (h *Handlers) Delete(ctx context.Context, req *Request) (any, error) {
	var p writeParams
	if err := h.decode(req, &p); err != nil {
		return nil, err
	}

	return h.observe(ctx, req, "records.delete", p.Resource, func(ctx context.Context) (any, error) {
		if err := h.client.DeleteRecord(ctx, domain.ResourceType(p.Resource), p.RecordID); err != nil {
			return nil, err
		}
		return map[string]any{"deleted": true, "recordId": p.RecordID}, nil
	})
}

// Assert handles records.assert (create-or-update by matching attribute).
func (h *Handlers) Assert(ctx context.Context, req *Request) (any, error) {
	var p writeParams
	if err := h.decode(req, &p); err != nil {
		return nil, err
	}

	return h.observe(ctx, req, "records.assert", p.Resource, func(ctx context.Context) (any, error) {
		return h.client.AssertRecord(ctx, h.schemas, domain.ResourceType(p.Resource), p.MatchAttribute, p.Attributes)
	})
}

// batchItemResult is one per-item entry of the batch response, keyed back to
// its input index.
type batchItemResult struct {
	Index   int        `json:"index"`
	Success bool       `json:"success"`
	Value   any        `json:"value,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
	Ref     string     `json:"correlationId,omitempty"`
}

// BatchSearch handles records.batch_search: N independent searches with
// per-item isolation and input-order preservation.
func (h *Handlers) BatchSearch(ctx context.Context, req *Request) (any, error) {
	var p batchSearchParams
	if err := h.decode(req, &p); err != nil {
		return nil, err
	}

	metrics.BatchSize.Observe(float64(len(p.Items)))

	return h.observe(ctx, req, "records.batch_search", p.Resource, func(ctx context.Context) (any, error) {
		results, summary, err := batch.Execute(ctx, p.Items,
			func(ctx context.Context, item searchParams) ([]domain.Record, error) {
				resource := item.Resource
				if resource == "" {
					resource = p.Resource
				}
				return h.client.SearchRecords(ctx, h.schemas, domain.ResourceType(resource), item.query())
			}, h.batch)
		if err != nil {
			return nil, err
		}

		items := make([]batchItemResult, len(results))
		for i, r := range results {
			items[i] = batchItemResult{Index: i, Success: r.OK}
			if r.OK {
				items[i].Value = r.Value
			} else {
				items[i].Error = &ErrorBody{
					Message:    r.Err.Message,
					Type:       string(r.Err.Classification),
					StatusCode: r.Err.Status,
					Suggestion: r.Err.Suggestion,
				}
				items[i].Ref = r.Err.CorrelationID
			}
		}

		return map[string]any{"results": items, "summary": summary}, nil
	})
}

// decode parses tool params; malformed JSON is a validation failure.
func (h *Handlers) decode(req *Request, into any) error {
	if len(req.Params) == 0 {
		return h.validationError(req, "Tool parameters are required.")
	}
	if err := json.Unmarshal(req.Params, into); err != nil {
		return h.validationError(req, "Tool parameters are not valid JSON for this tool.")
	}
	return nil
}

func (h *Handlers) validationError(req *Request, detail string) error {
	opCtx := domain.NewOperationContext(req.Tool, "tools").WithRequestID(req.RequestID)
	return remoteerr.NewValidation(detail, opCtx)
}

// observe runs fn, then records metrics and one audit entry for the outcome.
func (h *Handlers) observe(ctx context.Context, req *Request, operation, resource string, fn func(ctx context.Context) (any, error)) (any, error) {
	start := time.Now()
	result, err := fn(ctx)
	duration := time.Since(start)

	entry := &domain.AuditEntry{
		RequestID:  req.RequestID,
		Operation:  operation,
		Resource:   resource,
		DurationMs: duration.Milliseconds(),
	}

	if err != nil {
		opCtx := domain.NewOperationContext(operation, "tools").
			WithResource(resource, "").
			WithRequestID(req.RequestID)
		re := remoteerr.Sanitize(err, opCtx)

		entry.CorrelationID = re.CorrelationID
		entry.Outcome = domain.AuditOutcomeFailure
		entry.Classification = re.Classification
		entry.Status = re.Status

		metrics.ToolCallsTotal.WithLabelValues(operation, "failure").Inc()
		metrics.RemoteErrorsTotal.WithLabelValues(operation, string(re.Classification)).Inc()
		h.saveAudit(ctx, entry)
		return nil, re
	}

	entry.CorrelationID = uuid.New().String()
	entry.Outcome = domain.AuditOutcomeSuccess
	entry.Status = 200

	metrics.ToolCallsTotal.WithLabelValues(operation, "success").Inc()
	metrics.RemoteCallsTotal.WithLabelValues(operation).Inc()
	metrics.RemoteLatency.WithLabelValues(operation).Observe(duration.Seconds())
	h.saveAudit(ctx, entry)
	return result, nil
}

func (h *Handlers) saveAudit(ctx context.Context, entry *domain.AuditEntry) {
	if h.audit == nil {
		return
	}
	if err := h.audit.Save(ctx, entry); err != nil && h.log != nil {
		h.log.Error("failed to save audit entry",
			"operation", entry.Operation,
			"correlation_id", entry.CorrelationID,
			"error", err)
	}
}
