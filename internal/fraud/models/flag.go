// Package models holds fraud flags raised against claims by triage.
package models

import (
	"time"

	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
)

type FlagType string

const (
	FlagDuplicateClaim FlagType = "duplicate_claim"
	FlagAmountOutlier  FlagType = "amount_outlier"
	FlagVelocity       FlagType = "velocity"
)

func (t FlagType) IsValid() bool {
	switch t {
	case FlagDuplicateClaim, FlagAmountOutlier, FlagVelocity:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// AllSeverities lists severities lowest first.
var AllSeverities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Flag is a fraud signal attached to a claim. ResolvedAt and ResolvedBy are
// set exactly when Resolved is true.
type Flag struct {
	ID          domain.FlagID  `json:"id"`
	ClaimID     domain.ClaimID `json:"claim_id"`
	FlagType    FlagType       `json:"flag_type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	FlaggedAt   time.Time      `json:"flagged_at"`
	Resolved    bool           `json:"resolved"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy  *domain.Actor  `json:"resolved_by,omitempty"`
}

// Finding is a rule outcome before it is persisted as a flag.
type Finding struct {
	FlagType    FlagType
	Severity    Severity
	Description string
}

// NewFlag stamps a finding against claimID.
func NewFlag(claimID domain.ClaimID, f Finding, now time.Time) *Flag {
	return &Flag{
		ID:          domain.NewFlagID(),
		ClaimID:     claimID,
		FlagType:    f.FlagType,
		Severity:    f.Severity,
		Description: f.Description,
		FlaggedAt:   now.UTC().Truncate(time.Microsecond),
	}
}

// Resolve marks the flag resolved by actor. A resolution time earlier than
// FlaggedAt is clamped so ResolvedAt never precedes it.
func (f *Flag) Resolve(actor domain.Actor, at time.Time) error {
	if f.Resolved {
		return dErrors.New(dErrors.CodeAlreadyResolved, "fraud flag already resolved")
	}
	at = at.UTC().Truncate(time.Microsecond)
	if at.Before(f.FlaggedAt) {
		at = f.FlaggedAt
	}
	f.Resolved = true
	f.ResolvedAt = &at
	f.ResolvedBy = &actor
	return nil
}

// IsOpenHigh reports whether the flag is an unresolved high-severity flag.
func (f *Flag) IsOpenHigh() bool {
	return !f.Resolved && f.Severity == SeverityHigh
}

func (f *Flag) Clone() *Flag {
	if f == nil {
		return nil
	}
	out := *f
	if f.ResolvedAt != nil {
		at := *f.ResolvedAt
		out.ResolvedAt = &at
	}
	if f.ResolvedBy != nil {
		by := *f.ResolvedBy
		out.ResolvedBy = &by
	}
	return &out
}
