// Package domain holds value types shared by every claim-lifecycle module.
//
// Identifiers are distinct named types over uuid.UUID so a FlagID can never be
// passed where a ClaimID is expected. Construct them from external input with
// the Parse* functions; direct conversion skips validation.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "claimtriage/pkg/domain-errors"
)

type (
	ClaimID uuid.UUID
	FlagID  uuid.UUID
)

// maxIDLength bounds input before it reaches uuid.Parse.
const maxIDLength = 64

func NewClaimID() ClaimID { return ClaimID(uuid.New()) }
func NewFlagID() FlagID   { return FlagID(uuid.New()) }

func (id ClaimID) String() string { return uuid.UUID(id).String() }
func (id ClaimID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id FlagID) String() string  { return uuid.UUID(id).String() }
func (id FlagID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

func (id ClaimID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id FlagID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *ClaimID) UnmarshalText(b []byte) error {
	parsed, err := ParseClaimID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *FlagID) UnmarshalText(b []byte) error {
	parsed, err := ParseFlagID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseClaimID validates a claim identifier from a trust boundary.
func ParseClaimID(s string) (ClaimID, error) {
	u, err := parseUUID(s, "claim_id")
	return ClaimID(u), err
}

// ParseFlagID validates a fraud flag identifier from a trust boundary.
func ParseFlagID(s string) (FlagID, error) {
	u, err := parseUUID(s, "flag_id")
	return FlagID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}
