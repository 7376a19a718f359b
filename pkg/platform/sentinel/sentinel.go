package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and services translate them into domain errors:
//   - ErrNotFound: the claim, flag or attempt does not exist
//   - ErrConflict: a uniqueness guard tripped (duplicate ledger tuple, id reuse)
//   - ErrAlreadyUsed: a one-shot state change was already applied (flag resolution)
//   - ErrUnavailable: the backing store or a collaborator cannot be reached
//
// Validation failures never use these; they come from pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)
