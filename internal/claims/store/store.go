// Package store persists claims and their tracking ledger. Both backends
// expose the same two surfaces: read/create methods, and a Tx view that is
// the only place a claim's status can be written.
package store

import (
	"context"
	"time"

	"claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
)

// Tx is the unit-of-work view handed to the transition authority. The status
// write and the ledger append made through one Tx commit together or not at all.
type Tx interface {
	// ClaimForUpdate loads the claim and holds it exclusively until the unit ends.
	ClaimForUpdate(ctx context.Context, id domain.ClaimID) (*models.Claim, error)
	// UpdateStatus moves the claim from -> to as a compare-and-set on the
	// stored status and fails with sentinel.ErrConflict when it is no longer
	// from. It does not require a prior ClaimForUpdate; callers that decide
	// on the loaded claim should take it first so the decision holds.
	UpdateStatus(ctx context.Context, id domain.ClaimID, from, to models.Status, at time.Time) error
	// Append adds a ledger entry. A repeated (claim, from, to, timestamp)
	// tuple fails with sentinel.ErrConflict.
	Append(ctx context.Context, event *models.TrackingEvent) error
}

func cloneAll(in []*models.Claim) []*models.Claim {
	out := make([]*models.Claim, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func copyEvent(e *models.TrackingEvent) *models.TrackingEvent {
	cp := *e
	return &cp
}
