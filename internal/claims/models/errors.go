package models

import (
	"fmt"

	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
)

// TransitionError names the rejected (from, to) pair so callers can show
// exactly which transition failed.
type TransitionError struct {
	From   Status
	To     Status
	Role   domain.ActorRole
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transition %s -> %s rejected", e.From, e.To)
	}
	return fmt.Sprintf("transition %s -> %s rejected: %s", e.From, e.To, e.Reason)
}

// InvalidTransition builds an invalid_transition domain error.
func InvalidTransition(from, to Status, role domain.ActorRole, reason string) error {
	te := &TransitionError{From: from, To: to, Role: role, Reason: reason}
	return dErrors.Wrap(te, dErrors.CodeInvalidTransition,
		fmt.Sprintf("cannot move claim from %s to %s", from, to))
}

// TerminalState builds a terminal_state domain error.
func TerminalState(from, to Status) error {
	te := &TransitionError{From: from, To: to, Reason: "claim is in a terminal state"}
	return dErrors.Wrap(te, dErrors.CodeTerminalState,
		fmt.Sprintf("claim is %s and accepts no further transitions", from))
}

func validationError(msg string) error {
	return dErrors.New(dErrors.CodeValidation, msg)
}
