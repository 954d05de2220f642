package logsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisSink stores records as JSON in Redis lists: one global stream list
// plus one list per correlation id so correlation lookups stay O(call).
// Records are LPUSHed, so list order is already newest-first.
type RedisSink struct {
	client *backend.Client
	prefix string
	maxLen int64
	ttl    time.Duration
}

// RedisOption configures a RedisSink.
type RedisOption func(*RedisSink)

// WithPrefix sets the key prefix for log keys.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisSink) {
		s.prefix = prefix
	}
}

// WithMaxLen caps the global stream list; 0 means unbounded.
func WithMaxLen(n int64) RedisOption {
	return func(s *RedisSink) {
		s.maxLen = n
	}
}

// WithTTL sets the expiration for per-correlation lists.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisSink) {
		s.ttl = ttl
	}
}

// NewRedisSink creates a sink backed by a new Redis client.
func NewRedisSink(address, password string, db int, opts ...RedisOption) *RedisSink {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisSinkFromClient(client, opts...)
}

// NewRedisSinkFromClient creates a sink from an existing client.
func NewRedisSinkFromClient(client *backend.Client, opts ...RedisOption) *RedisSink {
	s := &RedisSink{
		client: client,
		prefix: "ragline:logs",
		maxLen: 10000,
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisSink) streamKey() string {
	return s.prefix + ":stream"
}

func (s *RedisSink) correlationKey(id string) string {
	return s.prefix + ":corr:" + id
}

// Write persists the record to the stream list and the correlation index.
func (s *RedisSink) Write(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("logsink: marshal record: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.streamKey(), data)
	if s.maxLen > 0 {
		pipe.LTrim(ctx, s.streamKey(), 0, s.maxLen-1)
	}
	if rec.CorrelationID != "" {
		key := s.correlationKey(rec.CorrelationID)
		pipe.LPush(ctx, key, data)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("logsink: write to redis: %w", err)
	}
	return nil
}

// Query scans the relevant list and filters in memory. Correlation-id
// queries read the per-correlation list; everything else walks the stream.
func (s *RedisSink) Query(ctx context.Context, f Filter) ([]Record, error) {
	key := s.streamKey()
	if f.CorrelationID != "" {
		key = s.correlationKey(f.CorrelationID)
	}

	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("logsink: read from redis: %w", err)
	}

	records := make([]Record, 0, min(len(raw), f.limit()))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue // skip corrupt entries rather than failing the query
		}
		if !f.matches(rec) {
			continue
		}
		records = append(records, rec)
		if len(records) >= f.limit() {
			break
		}
	}
	return records, nil
}

// Close closes the redis client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
