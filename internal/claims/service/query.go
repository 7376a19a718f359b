package service

import (
	"context"

	"claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
)

func (s *Service) GetClaim(ctx context.Context, id domain.ClaimID) (*models.Claim, error) {
	claim, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "claim not found", "failed to load claim")
	}
	return claim, nil
}

// ListClaims returns the owner's claims, newest first.
func (s *Service) ListClaims(ctx context.Context, ownerID string) ([]*models.Claim, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner_id is required")
	}
	claims, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, translateStoreErr(err, "claim not found", "failed to list claims")
	}
	return claims, nil
}

// ListAllClaims returns every claim matching filter, newest first.
func (s *Service) ListAllClaims(ctx context.Context, filter models.Filter) ([]*models.Claim, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	claims, err := s.store.ListAll(ctx, filter)
	if err != nil {
		return nil, translateStoreErr(err, "claim not found", "failed to list claims")
	}
	return claims, nil
}

// ClaimHistory returns the claim's tracking events, oldest first.
func (s *Service) ClaimHistory(ctx context.Context, id domain.ClaimID) ([]*models.TrackingEvent, error) {
	events, err := s.store.History(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "claim not found", "failed to load claim history")
	}
	return events, nil
}
