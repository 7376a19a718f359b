package handler

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"claimtriage/internal/claims/models"
	dErrors "claimtriage/pkg/domain-errors"
	platformstrings "claimtriage/pkg/platform/strings"
)

const maxNotesLen = 2000

// CreateClaimRequest is the HTTP request body for POST /claims.
type CreateClaimRequest struct {
	OwnerID       string      `json:"owner_id,omitempty"`
	ClaimType     string      `json:"claim_type"`
	InsuranceType string      `json:"insurance_type"`
	AmountClaimed json.Number `json:"amount_claimed"`
	IncidentDate  string      `json:"incident_date"`
	Description   string      `json:"description"`
	DocumentRefs  []string    `json:"document_refs,omitempty"`
	// Status is draft or submitted; empty means submitted.
	Status string `json:"status,omitempty"`

	draft models.ClaimDraft
}

// Validate parses the wire fields into a draft. Business rules run in the
// service.
func (r *CreateClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	claimType, err := models.ParseClaimType(r.ClaimType)
	if err != nil {
		return err
	}
	insuranceType, err := models.ParseInsuranceType(r.InsuranceType)
	if err != nil {
		return err
	}
	amount, err := models.ParseAmount(r.AmountClaimed.String())
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.IncidentDate) == "" {
		return dErrors.New(dErrors.CodeValidation, "incident_date is required")
	}
	incident, err := models.ParseDate(r.IncidentDate)
	if err != nil {
		return err
	}
	var initial models.Status
	if strings.TrimSpace(r.Status) != "" {
		if initial, err = models.ParseStatus(r.Status); err != nil {
			return err
		}
	}

	r.draft = models.ClaimDraft{
		OwnerID:       r.OwnerID,
		ClaimType:     claimType,
		InsuranceType: insuranceType,
		AmountClaimed: amount,
		IncidentDate:  incident,
		Description:   r.Description,
		DocumentRefs:  r.DocumentRefs,
		InitialStatus: initial,
	}
	return nil
}

// Draft returns the parsed claim draft.
func (r *CreateClaimRequest) Draft() models.ClaimDraft {
	return r.draft
}

// TransitionRequest is the HTTP request body for POST /claims/{id}/transitions.
type TransitionRequest struct {
	ToStatus string `json:"to_status"`
	Notes    string `json:"notes,omitempty"`

	parsedStatus models.Status
}

func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Notes) > maxNotesLen {
		return dErrors.New(dErrors.CodeValidation, "notes must be at most 2000 characters")
	}
	if strings.TrimSpace(r.ToStatus) == "" {
		return dErrors.New(dErrors.CodeValidation, "to_status is required")
	}
	status, err := models.ParseStatus(r.ToStatus)
	if err != nil {
		return err
	}
	r.parsedStatus = status
	r.Notes = strings.TrimSpace(r.Notes)
	return nil
}

// ParsedStatus returns the validated target status.
func (r *TransitionRequest) ParsedStatus() models.Status {
	return r.parsedStatus
}

// ParseFilter reads listing filters from query parameters. Enum parameters
// accept repeated keys and comma-separated values; created_from and
// created_to are RFC 3339 timestamps.
func ParseFilter(q url.Values) (models.Filter, error) {
	var f models.Filter
	for _, raw := range platformstrings.SplitLower(q["status"]...) {
		s, err := models.ParseStatus(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.Statuses = append(f.Statuses, s)
	}
	for _, raw := range platformstrings.SplitLower(q["claim_type"]...) {
		t, err := models.ParseClaimType(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.ClaimTypes = append(f.ClaimTypes, t)
	}
	for _, raw := range platformstrings.SplitLower(q["insurance_type"]...) {
		t, err := models.ParseInsuranceType(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.InsuranceTypes = append(f.InsuranceTypes, t)
	}
	f.OwnerID = strings.TrimSpace(q.Get("owner_id"))

	var err error
	if f.CreatedFrom, err = parseTimeParam(q, "created_from"); err != nil {
		return models.Filter{}, err
	}
	if f.CreatedTo, err = parseTimeParam(q, "created_to"); err != nil {
		return models.Filter{}, err
	}
	if err := f.Validate(); err != nil {
		return models.Filter{}, err
	}
	return f, nil
}

func parseTimeParam(q url.Values, key string) (time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, key+" must be an RFC 3339 timestamp")
	}
	return t.UTC(), nil
}
