package models

import (
	"strings"

	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
)

// Status is the single canonical claim status vocabulary.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusPaid        Status = "paid"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusPaid,
}

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusPaid
}

func (s Status) String() string { return string(s) }

// ParseStatus accepts the canonical spelling, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown claim status: "+raw)
	}
	return s, nil
}

type edge struct {
	from Status
	to   Status
}

// legalEdges maps each permitted transition to the roles allowed to trigger it.
var legalEdges = map[edge][]domain.ActorRole{
	{StatusDraft, StatusSubmitted}:       {domain.RoleOwner},
	{StatusSubmitted, StatusUnderReview}: {domain.RoleSystem, domain.RoleAdmin},
	{StatusSubmitted, StatusRejected}:    {domain.RoleAdmin},
	{StatusUnderReview, StatusApproved}:  {domain.RoleAdmin},
	{StatusUnderReview, StatusRejected}:  {domain.RoleAdmin},
	{StatusApproved, StatusPaid}:         {domain.RoleSystem},
}

// IsLegalEdge reports whether from -> to exists in the graph for any role.
func IsLegalEdge(from, to Status) bool {
	_, ok := legalEdges[edge{from, to}]
	return ok
}

// AllowedRoles returns the roles permitted to move a claim from -> to.
func AllowedRoles(from, to Status) []domain.ActorRole {
	return legalEdges[edge{from, to}]
}

// NextStatuses lists the statuses reachable from s by role.
func NextStatuses(s Status, role domain.ActorRole) []Status {
	var out []Status
	for _, to := range AllStatuses {
		for _, r := range legalEdges[edge{s, to}] {
			if r == role {
				out = append(out, to)
				break
			}
		}
	}
	return out
}

// CheckTransition applies the terminal and edge rules, in that order, so a
// terminal claim always reports a terminal-state error.
func CheckTransition(from, to Status, role domain.ActorRole) error {
	if from.IsTerminal() {
		return TerminalState(from, to)
	}
	if !to.IsValid() {
		return InvalidTransition(from, to, role, "unknown target status")
	}
	roles, ok := legalEdges[edge{from, to}]
	if !ok {
		return InvalidTransition(from, to, role, "no such edge")
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return InvalidTransition(from, to, role, "role "+string(role)+" may not trigger this transition")
}
