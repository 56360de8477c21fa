package request

import (
	"context"
	"time"
)

// Store is the persistence boundary for request records.
//
// Requirements:
//   - Records expire after their TTL independent of application logic.
//   - PutIfStatus is a conditional write: it replaces the record only while the stored
//     status still equals expected, and it keeps the remaining TTL.
type Store interface {
	Put(ctx context.Context, rec Record, ttl time.Duration) error
	Get(ctx context.Context, id string) (Record, error)
	PutIfStatus(ctx context.Context, id string, expected Status, next Record) error
	Close() error
}

// Pinger is implemented by stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger is implemented by stores whose expired records stay on disk or in memory until
// removed explicitly. Redis expires keys natively and does not implement it.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func validRecord(rec Record) bool {
	return rec.ID != "" && rec.Status.Valid() && !rec.CreatedAt.IsZero()
}
