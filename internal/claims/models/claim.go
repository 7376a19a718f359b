package models

import (
	"strings"
	"time"

	"claimtriage/pkg/domain"
	platformstrings "claimtriage/pkg/platform/strings"
)

const (
	maxDescriptionLen = 4000
	maxDocumentRefs   = 50
	maxOwnerIDLen     = 256
)

// Claim is a request for payout tracked through review states. Status and
// UpdatedAt change only through the transition authority.
type Claim struct {
	ID            domain.ClaimID `json:"id"`
	OwnerID       string         `json:"owner_id"`
	ClaimType     ClaimType      `json:"claim_type"`
	InsuranceType InsuranceType  `json:"insurance_type"`
	AmountClaimed Amount         `json:"amount_claimed"`
	IncidentDate  Date           `json:"incident_date"`
	Description   string         `json:"description"`
	DocumentRefs  []string       `json:"document_refs"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so store callers cannot mutate stored state.
func (c *Claim) Clone() *Claim {
	if c == nil {
		return nil
	}
	out := *c
	out.DocumentRefs = append([]string(nil), c.DocumentRefs...)
	return &out
}

// ClaimDraft is the caller-supplied input to claim creation.
type ClaimDraft struct {
	OwnerID       string
	ClaimType     ClaimType
	InsuranceType InsuranceType
	AmountClaimed Amount
	IncidentDate  Date
	Description   string
	DocumentRefs  []string
	// InitialStatus is draft or submitted; empty means submitted.
	InitialStatus Status
}

// Normalize trims free text and drops blank or repeated document refs.
func (d *ClaimDraft) Normalize() {
	d.OwnerID = strings.TrimSpace(d.OwnerID)
	d.Description = strings.TrimSpace(d.Description)
	d.DocumentRefs = platformstrings.DedupeAndTrim(d.DocumentRefs)
	if d.InitialStatus == "" {
		d.InitialStatus = StatusSubmitted
	}
}

// Validate checks the draft against creation rules at time now.
func (d *ClaimDraft) Validate(now time.Time) error {
	if d.OwnerID == "" {
		return validationError("owner_id is required")
	}
	if len(d.OwnerID) > maxOwnerIDLen {
		return validationError("owner_id is too long")
	}
	if d.ClaimType == "" {
		return validationError("claim_type is required")
	}
	if !d.ClaimType.IsValid() {
		return validationError("unknown claim_type: " + string(d.ClaimType))
	}
	if d.InsuranceType == "" {
		return validationError("insurance_type is required")
	}
	if !d.InsuranceType.IsValid() {
		return validationError("unknown insurance_type: " + string(d.InsuranceType))
	}
	if !d.AmountClaimed.IsPositive() {
		return validationError("amount_claimed must be greater than zero")
	}
	if d.IncidentDate.IsZero() {
		return validationError("incident_date is required")
	}
	if d.Description == "" {
		return validationError("description is required")
	}
	if len(d.Description) > maxDescriptionLen {
		return validationError("description is too long")
	}
	if len(d.DocumentRefs) > maxDocumentRefs {
		return validationError("too many document_refs")
	}
	switch d.InitialStatus {
	case StatusDraft:
	case StatusSubmitted:
		if d.IncidentDate.AfterDay(now) {
			return validationError("incident_date cannot be in the future")
		}
	default:
		return validationError("initial status must be draft or submitted")
	}
	return nil
}

// NewClaim normalizes and validates draft and builds a claim stamped at now.
func NewClaim(draft ClaimDraft, now time.Time) (*Claim, error) {
	draft.Normalize()
	if err := draft.Validate(now); err != nil {
		return nil, err
	}
	now = now.UTC().Truncate(time.Microsecond)
	return &Claim{
		ID:            domain.NewClaimID(),
		OwnerID:       draft.OwnerID,
		ClaimType:     draft.ClaimType,
		InsuranceType: draft.InsuranceType,
		AmountClaimed: draft.AmountClaimed,
		IncidentDate:  draft.IncidentDate,
		Description:   draft.Description,
		DocumentRefs:  draft.DocumentRefs,
		Status:        draft.InitialStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ValidateForSubmission re-checks the rules that apply when a draft is
// submitted: description present and incident date not in the future.
func (c *Claim) ValidateForSubmission(now time.Time) error {
	if strings.TrimSpace(c.Description) == "" {
		return validationError("description is required at submission")
	}
	if c.IncidentDate.AfterDay(now) {
		return validationError("incident_date cannot be in the future")
	}
	return nil
}

// TransitionTime returns the timestamp for the next status write: now, or
// one microsecond past UpdatedAt when the clock has not advanced, so
// UpdatedAt strictly increases. Microseconds match Postgres precision.
func (c *Claim) TransitionTime(now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(c.UpdatedAt) {
		return c.UpdatedAt.Add(time.Microsecond)
	}
	return now
}
