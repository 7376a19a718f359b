package models

import "strings"

// ClaimType categorizes the incident.
type ClaimType string

const (
	ClaimTypeAccident ClaimType = "accident"
	ClaimTypeTheft    ClaimType = "theft"
	ClaimTypeDamage   ClaimType = "damage"
	ClaimTypeMedical  ClaimType = "medical"
	ClaimTypeOther    ClaimType = "other"
)

var AllClaimTypes = []ClaimType{
	ClaimTypeAccident, ClaimTypeTheft, ClaimTypeDamage, ClaimTypeMedical, ClaimTypeOther,
}

func (t ClaimType) IsValid() bool {
	switch t {
	case ClaimTypeAccident, ClaimTypeTheft, ClaimTypeDamage, ClaimTypeMedical, ClaimTypeOther:
		return true
	}
	return false
}

func ParseClaimType(raw string) (ClaimType, error) {
	t := ClaimType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return "", validationError("claim_type is required")
	}
	if !t.IsValid() {
		return "", validationError("unknown claim_type: " + raw)
	}
	return t, nil
}

// InsuranceType is the policy line the claim is filed against.
type InsuranceType string

const (
	InsuranceHealth   InsuranceType = "health"
	InsuranceAuto     InsuranceType = "auto"
	InsuranceHome     InsuranceType = "home"
	InsuranceLife     InsuranceType = "life"
	InsuranceProperty InsuranceType = "property"
)

func (t InsuranceType) IsValid() bool {
	switch t {
	case InsuranceHealth, InsuranceAuto, InsuranceHome, InsuranceLife, InsuranceProperty:
		return true
	}
	return false
}

func ParseInsuranceType(raw string) (InsuranceType, error) {
	t := InsuranceType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return "", validationError("insurance_type is required")
	}
	if !t.IsValid() {
		return "", validationError("unknown insurance_type: " + raw)
	}
	return t, nil
}
