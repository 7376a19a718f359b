package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"claimtriage/internal/claims/models"
	"claimtriage/internal/claims/store"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/requestcontext"
)

const maxNotesLen = 2000

// Transition is the only way a claim's status changes. The status write and
// the ledger entry commit together; ClaimTransitioned is published only
// after commit and its delivery never affects the result.
//
// Checks run in order: claim exists, claim not terminal, edge legal for the
// actor's role, submission rules for draft -> submitted, and the fraud hold
// that keeps the system actor from routing a claim with unresolved
// high-severity flags into review.
func (s *Service) Transition(ctx context.Context, claimID domain.ClaimID, to models.Status, actor domain.Actor, notes string) (*models.Claim, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveTransitionLatency(time.Since(start))
	}()

	if err := actor.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid actor")
	}
	if len(notes) > maxNotesLen {
		return nil, dErrors.New(dErrors.CodeValidation, "notes are too long")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "claims.Transition", trace.WithAttributes(
		attribute.String("claim.id", claimID.String()),
		attribute.String("claim.to_status", string(to)),
		attribute.String("actor.role", string(actor.Role)),
	))
	defer span.End()

	now := requestcontext.Now(ctx)
	var (
		updated *models.Claim
		event   *models.TrackingEvent
	)
	err := s.store.RunInTx(ctx, claimID, func(ctx context.Context, tx store.Tx) error {
		claim, err := tx.ClaimForUpdate(ctx, claimID)
		if err != nil {
			return translateStoreErr(err, "claim not found", "failed to load claim")
		}
		from := claim.Status
		if err := models.CheckTransition(from, to, actor.Role); err != nil {
			return err
		}
		if err := s.checkPolicy(ctx, claim, to, actor, now); err != nil {
			return err
		}

		at := claim.TransitionTime(now)
		if err := tx.UpdateStatus(ctx, claimID, from, to, at); err != nil {
			return translateStoreErr(err, "claim not found", "failed to write claim status")
		}
		ev := &models.TrackingEvent{
			ClaimID:    claimID,
			FromStatus: from,
			ToStatus:   to,
			Actor:      actor,
			Notes:      notes,
			Timestamp:  at,
		}
		if err := tx.Append(ctx, ev); err != nil {
			return translateStoreErr(err, "claim not found", "failed to append tracking event")
		}

		claim.Status = to
		claim.UpdatedAt = at
		updated = claim
		event = ev
		return nil
	})
	if err != nil {
		err = translateStoreErr(err, "claim not found", "transition failed")
		s.recordFailure(ctx, span, claimID, to, actor, err)
		return nil, err
	}

	s.metrics.IncTransition(string(event.FromStatus), string(event.ToStatus), string(actor.Role))
	s.audit.Log(ctx, audit.EventClaimTransitioned,
		"claim_id", claimID.String(),
		"from_status", string(event.FromStatus),
		"to_status", string(event.ToStatus),
		"actor", actor.String(),
		"decision", string(event.ToStatus),
	)
	s.invalidateSnapshots(ctx, claimID)
	s.publish(ctx, updated, event)
	return updated, nil
}

// checkPolicy applies the rules that sit on top of the edge table.
func (s *Service) checkPolicy(ctx context.Context, claim *models.Claim, to models.Status, actor domain.Actor, now time.Time) error {
	from := claim.Status
	switch {
	case from == models.StatusDraft && to == models.StatusSubmitted:
		if actor.ID != claim.OwnerID {
			return models.InvalidTransition(from, to, actor.Role, "only the claim owner may submit it")
		}
		return claim.ValidateForSubmission(now)

	case from == models.StatusSubmitted && to == models.StatusUnderReview && actor.Role == domain.RoleSystem:
		if s.triage == nil {
			return nil
		}
		held, err := s.triage.HasUnresolvedHigh(ctx, claim.ID)
		if err != nil {
			return err
		}
		if held {
			return models.InvalidTransition(from, to, actor.Role,
				"unresolved high-severity fraud flags require admin review")
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, claim *models.Claim, ev *models.TrackingEvent) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, models.ClaimTransitioned{
		ClaimID:    claim.ID,
		OwnerID:    claim.OwnerID,
		FromStatus: ev.FromStatus,
		ToStatus:   ev.ToStatus,
		Actor:      ev.Actor,
		OccurredAt: ev.Timestamp,
		RequestID:  requestcontext.RequestID(ctx),
	})
}

func (s *Service) recordFailure(ctx context.Context, span trace.Span, claimID domain.ClaimID, to models.Status, actor domain.Actor, err error) {
	code := errorCode(err)
	s.metrics.IncTransitionFailure(code)
	span.RecordError(err)
	span.SetStatus(codes.Error, code)

	switch code {
	case string(dErrors.CodeInvalidTransition), string(dErrors.CodeTerminalState):
		s.audit.Log(ctx, audit.EventTransitionRejected,
			"claim_id", claimID.String(),
			"to_status", string(to),
			"actor", actor.String(),
			"reason", err.Error(),
		)
	case string(dErrors.CodeStorage), string(dErrors.CodeTimeout), string(dErrors.CodeInternal):
		s.logger.ErrorContext(ctx, "claim transition failed",
			"event", "claim_transition_failed",
			"claim_id", claimID.String(),
			"to_status", string(to),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
