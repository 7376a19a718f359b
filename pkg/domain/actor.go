package domain

import (
	"strings"

	dErrors "claimtriage/pkg/domain-errors"
)

// ActorRole is the role the identity collaborator vouches for. The engine
// trusts it and only uses it to gate transitions.
type ActorRole string

const (
	RoleOwner  ActorRole = "owner"
	RoleAdmin  ActorRole = "admin"
	RoleSystem ActorRole = "system"
)

func (r ActorRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

func (r ActorRole) String() string { return string(r) }

// ParseActorRole builds a role from external input.
func ParseActorRole(s string) (ActorRole, error) {
	r := ActorRole(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "actor role cannot be empty")
	}
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid actor role")
	}
	return r, nil
}

// Actor identifies who performed an operation: the claim owner, an admin, or
// the system itself (scoring jobs, payment confirmation).
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
}

// SystemActor is used by automated rules.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func OwnerActor(ownerID string) Actor { return Actor{ID: ownerID, Role: RoleOwner} }
func AdminActor(adminID string) Actor { return Actor{ID: adminID, Role: RoleAdmin} }

// Validate checks the actor carries an identity and a known role.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "actor id is required")
	}
	if !a.Role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid actor role")
	}
	return nil
}

// String renders the actor as "role:id" for ledger and log output.
func (a Actor) String() string {
	return string(a.Role) + ":" + a.ID
}

// ParseActor reads the "role:id" form produced by String.
func ParseActor(s string) (Actor, error) {
	role, id, ok := strings.Cut(s, ":")
	if !ok {
		return Actor{}, dErrors.New(dErrors.CodeInvalidInput, "actor must be role:id")
	}
	r, err := ParseActorRole(role)
	if err != nil {
		return Actor{}, err
	}
	a := Actor{ID: id, Role: r}
	if err := a.Validate(); err != nil {
		return Actor{}, err
	}
	return a, nil
}
