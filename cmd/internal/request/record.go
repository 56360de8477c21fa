package request

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle state of a request record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition may happen from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// DefaultRecordTTL is the retention window for request records, regardless of status.
const DefaultRecordTTL = 30 * 24 * time.Hour

// Requester is the submitter captured at intake. Immutable after creation.
type Requester struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Reason  string `json:"reason"`
}

// Record is a resume request.
type Record struct {
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
	Requester Requester  `json:"requester"`
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.DecidedAt != nil {
		t := *r.DecidedAt
		r.DecidedAt = &t
	}
	return r
}

// decided returns a copy of r moved to status at now.
func (r Record) decided(status Status, now time.Time) Record {
	out := r.Clone()
	out.Status = status
	at := now.UTC()
	out.DecidedAt = &at
	return out
}

func newULID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
