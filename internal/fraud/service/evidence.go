package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/fraud/models"
	"claimtriage/internal/fraud/rules"
)

type gatheredEvidence struct {
	Rules    rules.Evidence
	Existing []*models.Flag
}

// gatherEvidence loads the owner's claims, same-type claims and the claim's
// existing flags in parallel with shared cancellation.
func (s *Service) gatherEvidence(ctx context.Context, claim *claimmodels.Claim) (*gatheredEvidence, error) {
	g, ctx := errgroup.WithContext(ctx)
	ev := &gatheredEvidence{}

	g.Go(func() error {
		start := time.Now()
		owned, err := s.claims.ListByOwner(ctx, claim.OwnerID)
		s.metrics.ObserveEvidenceLatency("owner_claims", time.Since(start))
		if err != nil {
			return translate(err, "claim not found", "failed to load owner claims")
		}
		ev.Rules.OwnerClaims = owned
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		sameType, err := s.claims.ListAll(ctx, claimmodels.Filter{
			ClaimTypes: []claimmodels.ClaimType{claim.ClaimType},
		})
		s.metrics.ObserveEvidenceLatency("type_claims", time.Since(start))
		if err != nil {
			return translate(err, "claim not found", "failed to load claim type history")
		}
		ev.Rules.TypeClaims = sameType
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		existing, err := s.flags.ListByClaim(ctx, claim.ID)
		s.metrics.ObserveEvidenceLatency("open_flags", time.Since(start))
		if err != nil {
			return translate(err, "claim not found", "failed to load existing flags")
		}
		ev.Existing = existing
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ev, nil
}
