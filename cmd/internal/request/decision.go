package request

import (
	"time"

	"resumegate/cmd/security/token"
)

// Outcome is the terminal result of handling one decision link.
type Outcome string

const (
	OutcomeNotFound       Outcome = "not_found"
	OutcomeExpired        Outcome = "expired"
	OutcomeDenied         Outcome = "denied"
	OutcomeApproved       Outcome = "approved"
	OutcomeAlreadyDecided Outcome = "already_decided"
)

// Transition is what the state machine decided for one verified token.
// Next is non-nil only when the record must be persisted; SendApproval is set only
// for pending+approve, and the email must go out before Next is persisted.
type Transition struct {
	Outcome      Outcome
	Next         *Record
	SendApproval bool
}

// Decide evaluates verified claims against the current record (nil when absent).
//
// Rows are checked in order: absent, already decided, expired, then the action.
// A decided record reports its status for any token, fresh or not, so replays never mutate.
func Decide(cur *Record, claims token.Claims, now time.Time) Transition {
	switch {
	case cur == nil:
		return Transition{Outcome: OutcomeNotFound}
	case cur.Status.Terminal():
		return Transition{Outcome: OutcomeAlreadyDecided}
	case claims.Expired(now):
		return Transition{Outcome: OutcomeExpired}
	}

	switch claims.Action {
	case token.ActionDeny:
		next := cur.decided(StatusDenied, now)
		return Transition{Outcome: OutcomeDenied, Next: &next}
	case token.ActionApprove:
		next := cur.decided(StatusApproved, now)
		return Transition{Outcome: OutcomeApproved, Next: &next, SendApproval: true}
	default:
		// Decode rejects unknown actions; treat anything else as an unusable link.
		return Transition{Outcome: OutcomeExpired}
	}
}
