package models

import (
	"time"

	"claimtriage/pkg/domain"
)

// TrackingEvent is one ledger entry: a committed status change.
type TrackingEvent struct {
	ClaimID    domain.ClaimID `json:"claim_id"`
	FromStatus Status         `json:"from_status"`
	ToStatus   Status         `json:"to_status"`
	Actor      domain.Actor   `json:"actor"`
	Notes      string         `json:"notes,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ClaimTransitioned is published after a transition commits.
type ClaimTransitioned struct {
	ClaimID    domain.ClaimID `json:"claim_id"`
	OwnerID    string         `json:"owner_id"`
	FromStatus Status         `json:"from_status"`
	ToStatus   Status         `json:"to_status"`
	Actor      domain.Actor   `json:"actor"`
	OccurredAt time.Time      `json:"occurred_at"`
	RequestID  string         `json:"request_id,omitempty"`
}

// VerifyChain checks that events form an unbroken walk over legal edges
// starting at initial, ordered by timestamp. An empty history is valid.
func VerifyChain(initial Status, events []*TrackingEvent) error {
	cur := initial
	var last time.Time
	for i, e := range events {
		if e.FromStatus != cur {
			return InvalidTransition(e.FromStatus, e.ToStatus, e.Actor.Role, "chain broken: expected from "+string(cur))
		}
		if !IsLegalEdge(e.FromStatus, e.ToStatus) {
			return InvalidTransition(e.FromStatus, e.ToStatus, e.Actor.Role, "illegal edge in history")
		}
		if i > 0 && !e.Timestamp.After(last) {
			return InvalidTransition(e.FromStatus, e.ToStatus, e.Actor.Role, "history out of order")
		}
		cur = e.ToStatus
		last = e.Timestamp
	}
	return nil
}
