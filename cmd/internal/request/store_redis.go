package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// casScript replaces a record only while its stored status matches.
// KEYS[1] = record key
// ARGV[1] = expected status
// ARGV[2] = replacement JSON
// Returns 1 on success, 0 when the key is missing, -1 on status mismatch.
var casScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
    return 0
end
local rec = cjson.decode(cur)
if rec["status"] ~= ARGV[1] then
    return -1
end
redis.call("SET", KEYS[1], ARGV[2], "KEEPTTL")
return 1
`)

// RedisStore persists request records as JSON values with a native Redis TTL.
//
// Ownership model: the caller owns the client lifecycle; Close is a no-op.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures RedisStore.
type RedisOption func(*RedisStore) error

// WithRedisPrefix sets the key prefix (default: "resumegate:").
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) error {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			return ErrInvalidInput
		}
		s.prefix = prefix
		return nil
	}
}

// NewRedisStore constructs a RedisStore on top of client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	st := &RedisStore{client: client, prefix: "resumegate:"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.client == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Close is a no-op; see the ownership model above.
func (s *RedisStore) Close() error { return nil }

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Put upserts rec with a TTL.
func (s *RedisStore) Put(ctx context.Context, rec Record, ttl time.Duration) error {
	if !validRecord(rec) || ttl <= 0 {
		return ErrInvalidInput
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(rec.ID), data, ttl).Err()
}

// Get fetches a record by id.
func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, ErrInvalidInput
	}
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", id, err)
	}
	return rec, nil
}

// PutIfStatus atomically replaces the record while its status equals expected.
func (s *RedisStore) PutIfStatus(ctx context.Context, id string, expected Status, next Record) error {
	if id == "" || next.ID != id || !validRecord(next) {
		return ErrInvalidInput
	}
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}
	n, err := casScript.Run(ctx, s.client, []string{s.key(id)}, string(expected), string(data)).Int()
	if err != nil {
		return fmt.Errorf("redis cas: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return ErrNotFound
	default:
		return ErrConflict
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "request:" + id
}
