package attio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/crmbridge/internal/core/domain"
	"github.com/vietddude/crmbridge/internal/infra/remote/provider"
	"github.com/vietddude/crmbridge/internal/infra/remote/remoteerr"
)

const moduleRecords = "records"

// wireRecord is the Attio wire shape of one record.
type wireRecord struct {
	ID struct {
		RecordID string `json:"record_id"`
	} `json:"id"`
	Values    map[string][]map[string]any `json:"values"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// toRecord flattens the wire shape: single-element value lists collapse to
// the scalar, multi-element lists are kept as-is.
func (w wireRecord) toRecord(resource domain.ResourceType) domain.Record {
	attributes := make(map[string]any, len(w.Values))
	for slug, entries := range w.Values {
		switch len(entries) {
		case 0:
		case 1:
			if v, ok := entries[0]["value"]; ok {
				attributes[slug] = v
			} else {
				attributes[slug] = entries[0]
			}
		default:
			attributes[slug] = entries
		}
	}
	return domain.Record{
		ID:         w.ID.RecordID,
		Resource:   resource,
		Attributes: attributes,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

// GetObjectSchema fetches the attribute schema for one object. Implements
// SchemaSource; production wiring puts the Redis cache in front.
func (c *Client) GetObjectSchema(ctx context.Context, object string) (*ObjectSchema, error) {
	opCtx := domain.NewOperationContext("objects.attributes", moduleRecords).
		WithResource(object, "")

	attrs, err := call[[]AttributeDef](ctx, c, opCtx, provider.Operation{
		Name:   "objects.attributes",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/v2/objects/%s/attributes", url.PathEscape(object)),
	})
	if err != nil {
		return nil, err
	}

	schema := &ObjectSchema{
		Object:     object,
		Attributes: make(map[string]AttributeDef, len(attrs)),
	}
	for _, a := range attrs {
		schema.Attributes[a.Slug] = a
	}
	return schema, nil
}

// SearchRecords queries records of one object. Validation failures (unknown
// filter attributes, out-of-range paging) surface as sanitized validation
// errors without a remote call.
func (c *Client) SearchRecords(ctx context.Context, schemas SchemaSource, resource domain.ResourceType, q Query) ([]domain.Record, error) {
	opCtx := domain.NewOperationContext("records.query", moduleRecords).
		WithResource(string(resource), "")

	schema, err := schemas.GetObjectSchema(ctx, string(resource))
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	payload, err := buildQueryPayload(schema, q)
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	wires, err := call[[]wireRecord](ctx, c, opCtx, provider.Operation{
		Name:   "records.query",
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/v2/objects/%s/records/query", url.PathEscape(string(resource))),
		Body:   payload,
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, len(wires))
	for i, w := range wires {
		records[i] = w.toRecord(resource)
	}
	return records, nil
}

// CreateRecord creates a record with the given attributes. All schema
// validation happens before the call goes out.
func (c *Client) CreateRecord(ctx context.Context, schemas SchemaSource, resource domain.ResourceType, attributes map[string]any) (*domain.Record, error) {
	opCtx := domain.NewOperationContext("records.create", moduleRecords).
		WithResource(string(resource), "")

	schema, err := schemas.GetObjectSchema(ctx, string(resource))
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	values, err := MapAttributes(schema, attributes, true)
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	wire, err := call[wireRecord](ctx, c, opCtx, provider.Operation{
		Name:   "records.create",
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/v2/objects/%s/records", url.PathEscape(string(resource))),
		Body:   map[string]any{"data": map[string]any{"values": values}},
	})
	if err != nil {
		return nil, err
	}

	record := wire.toRecord(resource)
	return &record, nil
}

// UpdateRecord applies a partial attribute update to one record.
func (c *Client) UpdateRecord(ctx context.Context, schemas SchemaSource, resource domain.ResourceType, recordID string, attributes map[string]any) (*domain.Record, error) {
	opCtx := domain.NewOperationContext("records.update", moduleRecords).
		WithResource(string(resource), recordID)

	if err := ValidateRecordID(recordID); err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	schema, err := schemas.GetObjectSchema(ctx, string(resource))
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	values, err := MapAttributes(schema, attributes, false)
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}
	if len(values) == 0 {
		return nil, remoteerr.Sanitize(
			&remoteerr.ValidationError{Detail: "Update requires at least one attribute."}, opCtx)
	}

	wire, err := call[wireRecord](ctx, c, opCtx, provider.Operation{
		Name:   "records.update",
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/v2/objects/%s/records/%s", url.PathEscape(string(resource)), url.PathEscape(recordID)),
		Body:   map[string]any{"data": map[string]any{"values": values}},
	})
	if err != nil {
		return nil, err
	}

	record := wire.toRecord(resource)
	return &record, nil
}

// DeleteRecord removes one record. Idempotent from the caller's view only in
// the sense that a missing record surfaces as not_found.
func (c *Client) DeleteRecord(ctx context.Context, resource domain.ResourceType, recordID string) error {
	opCtx := domain.NewOperationContext("records.delete", moduleRecords).
		WithResource(string(resource), recordID)

	if err := ValidateRecordID(recordID); err != nil {
		return remoteerr.Sanitize(err, opCtx)
	}

	_, err := call[json.RawMessage](ctx, c, opCtx, provider.Operation{
		Name:   "records.delete",
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/v2/objects/%s/records/%s", url.PathEscape(string(resource)), url.PathEscape(recordID)),
	})
	return err
}

// AssertRecord upserts a record keyed by matchAttribute: Attio creates the
// record when no match exists and updates it otherwise.
func (c *Client) AssertRecord(ctx context.Context, schemas SchemaSource, resource domain.ResourceType, matchAttribute string, attributes map[string]any) (*domain.Record, error) {
	opCtx := domain.NewOperationContext("records.assert", moduleRecords).
		WithResource(string(resource), "")

	schema, err := schemas.GetObjectSchema(ctx, string(resource))
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	if !schema.HasAttribute(matchAttribute) {
		return nil, remoteerr.Sanitize(&remoteerr.ValidationError{
			Detail: fmt.Sprintf("Unknown matching attribute %q for object %q.", matchAttribute, schema.Object),
		}, opCtx)
	}
	if _, ok := attributes[matchAttribute]; !ok {
		return nil, remoteerr.Sanitize(&remoteerr.ValidationError{
			Detail: fmt.Sprintf("Matching attribute %q must be present in the payload.", matchAttribute),
		}, opCtx)
	}

	values, err := MapAttributes(schema, attributes, false)
	if err != nil {
		return nil, remoteerr.Sanitize(err, opCtx)
	}

	wire, err := call[wireRecord](ctx, c, opCtx, provider.Operation{
		Name:   "records.assert",
		Method: http.MethodPut,
		Path: fmt.Sprintf("/v2/objects/%s/records?matching_attribute=%s",
			url.PathEscape(string(resource)), url.QueryEscape(matchAttribute)),
		Body: map[string]any{"data": map[string]any{"values": values}},
	})
	if err != nil {
		return nil, err
	}

	record := wire.toRecord(resource)
	return &record, nil
}
