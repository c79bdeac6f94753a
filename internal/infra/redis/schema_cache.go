package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/crmbridge/internal/crm/attio"
)

// DefaultSchemaTTL bounds how stale a cached object schema may get. Schema
// changes in the workspace are picked up after at most this long.
const DefaultSchemaTTL = 15 * time.Minute

// SchemaCache decorates a SchemaSource with a Redis cache. Misses and Redis
// failures fall through to the upstream source, so a degraded Redis never
// blocks record operations.
type SchemaCache struct {
	rdb      *redis.Client
	upstream attio.SchemaSource
	ttl      time.Duration
	log      *slog.Logger
}

// NewSchemaCache creates a cache in front of upstream.
func NewSchemaCache(client *Client, upstream attio.SchemaSource, ttl time.Duration, log *slog.Logger) *SchemaCache {
	if ttl <= 0 {
		ttl = DefaultSchemaTTL
	}
	return &SchemaCache{
		rdb:      client.rdb,
		upstream: upstream,
		ttl:      ttl,
		log:      log,
	}
}

func schemaKey(object string) string {
	return fmt.Sprintf("schema:%s", object)
}

// GetObjectSchema implements attio.SchemaSource.
func (c *SchemaCache) GetObjectSchema(ctx context.Context, object string) (*attio.ObjectSchema, error) {
	key := schemaKey(object)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var schema attio.ObjectSchema
		if err := json.Unmarshal(data, &schema); err == nil {
			return &schema, nil
		}
		// Corrupt entry, drop it and refetch.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil && c.log != nil {
		c.log.Warn("schema cache read failed", "object", object, "error", err)
	}

	schema, err := c.upstream.GetObjectSchema(ctx, object)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(schema); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil && c.log != nil {
			c.log.Warn("schema cache write failed", "object", object, "error", err)
		}
	}

	return schema, nil
}

// Invalidate drops the cached schema for one object.
func (c *SchemaCache) Invalidate(ctx context.Context, object string) error {
	return c.rdb.Del(ctx, schemaKey(object)).Err()
}
