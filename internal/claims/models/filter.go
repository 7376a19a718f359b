package models

import (
	"slices"
	"time"
)

// Filter selects claims for admin listing and analytics. Zero fields match all.
// CreatedFrom is inclusive, CreatedTo exclusive.
type Filter struct {
	Statuses       []Status
	ClaimTypes     []ClaimType
	InsuranceTypes []InsuranceType
	OwnerID        string
	CreatedFrom    time.Time
	CreatedTo      time.Time
}

// Validate rejects unknown enum values and inverted ranges.
func (f Filter) Validate() error {
	for _, s := range f.Statuses {
		if !s.IsValid() {
			return validationError("unknown status in filter: " + string(s))
		}
	}
	for _, t := range f.ClaimTypes {
		if !t.IsValid() {
			return validationError("unknown claim_type in filter: " + string(t))
		}
	}
	for _, t := range f.InsuranceTypes {
		if !t.IsValid() {
			return validationError("unknown insurance_type in filter: " + string(t))
		}
	}
	if !f.CreatedFrom.IsZero() && !f.CreatedTo.IsZero() && !f.CreatedFrom.Before(f.CreatedTo) {
		return validationError("created_from must be before created_to")
	}
	return nil
}

// Matches reports whether c satisfies every predicate.
func (f Filter) Matches(c *Claim) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, c.Status) {
		return false
	}
	if len(f.ClaimTypes) > 0 && !slices.Contains(f.ClaimTypes, c.ClaimType) {
		return false
	}
	if len(f.InsuranceTypes) > 0 && !slices.Contains(f.InsuranceTypes, c.InsuranceType) {
		return false
	}
	if f.OwnerID != "" && f.OwnerID != c.OwnerID {
		return false
	}
	if !f.CreatedFrom.IsZero() && c.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && !c.CreatedAt.Before(f.CreatedTo) {
		return false
	}
	return true
}
