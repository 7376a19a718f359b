package service

import (
	"context"

	"claimtriage/internal/claims/models"
	fraudmodels "claimtriage/internal/fraud/models"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/requestcontext"
)

// CreateResult is a new claim with the flags raised by its initial triage.
type CreateResult struct {
	Claim *models.Claim       `json:"claim"`
	Flags []*fraudmodels.Flag `json:"fraud_flags"`
}

// CreateClaim validates and stores a claim, then triages it synchronously.
// Owners may only file for themselves. A triage failure does not undo the
// claim: it is logged and the result carries no flags, and triage can be
// re-run through the fraud service.
func (s *Service) CreateClaim(ctx context.Context, draft models.ClaimDraft, actor domain.Actor) (*CreateResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid actor")
	}
	if actor.Role == domain.RoleOwner {
		if draft.OwnerID == "" {
			draft.OwnerID = actor.ID
		}
		if draft.OwnerID != actor.ID {
			return nil, dErrors.New(dErrors.CodeForbidden, "owners may only file claims for themselves")
		}
	}

	claim, err := models.NewClaim(draft, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, claim); err != nil {
		return nil, translateStoreErr(err, "claim not found", "failed to store claim")
	}
	s.metrics.IncClaimCreated(string(claim.ClaimType), string(claim.Status))
	s.audit.Log(ctx, audit.EventClaimCreated,
		"claim_id", claim.ID.String(),
		"owner_id", claim.OwnerID,
		"actor", actor.String(),
		"status", string(claim.Status),
	)
	s.invalidateSnapshots(ctx, claim.ID)

	result := &CreateResult{Claim: claim, Flags: []*fraudmodels.Flag{}}
	if s.triage == nil {
		return result, nil
	}
	flags, err := s.triage.EvaluateClaim(ctx, claim)
	if err != nil {
		s.logger.ErrorContext(ctx, "initial fraud triage failed",
			"event", "claim_triage_failed",
			"claim_id", claim.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return result, nil
	}
	result.Flags = flags
	return result, nil
}
