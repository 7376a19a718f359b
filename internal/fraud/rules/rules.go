// Package rules holds the deterministic fraud triage rules. Everything here
// is pure: callers gather the evidence, rules only look at it.
package rules

import (
	"fmt"
	"math"
	"time"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/fraud/models"
)

// Config carries rule thresholds.
type Config struct {
	VelocityWindow    time.Duration
	VelocityMaxClaims int
	OutlierStdDevs    float64
	OutlierMinSamples int
	HardCaps          map[claimmodels.ClaimType]claimmodels.Amount
}

// DefaultConfig matches the server defaults.
func DefaultConfig() Config {
	return Config{
		VelocityWindow:    30 * 24 * time.Hour,
		VelocityMaxClaims: 3,
		OutlierStdDevs:    3.0,
		OutlierMinSamples: 5,
	}
}

// Evidence is what triage knows about a claim's surroundings.
type Evidence struct {
	// OwnerClaims are the owner's claims. The evaluated claim may be included.
	OwnerClaims []*claimmodels.Claim
	// TypeClaims are claims of the same claim type across all owners.
	TypeClaims []*claimmodels.Claim
}

// Evaluate runs every rule against claim and returns the findings in a
// fixed order: duplicate, amount outlier, velocity.
func Evaluate(claim *claimmodels.Claim, ev Evidence, cfg Config) []models.Finding {
	var out []models.Finding
	if f, ok := checkDuplicate(claim, ev.OwnerClaims); ok {
		out = append(out, f)
	}
	if f, ok := checkOutlier(claim, ev.TypeClaims, cfg); ok {
		out = append(out, f)
	}
	if f, ok := checkVelocity(claim, ev.OwnerClaims, cfg); ok {
		out = append(out, f)
	}
	return out
}

// checkDuplicate matches another non-rejected claim with the same owner,
// incident date and claim type.
func checkDuplicate(claim *claimmodels.Claim, owned []*claimmodels.Claim) (models.Finding, bool) {
	for _, other := range owned {
		if other.ID == claim.ID || other.Status == claimmodels.StatusRejected {
			continue
		}
		if other.OwnerID == claim.OwnerID &&
			other.ClaimType == claim.ClaimType &&
			other.IncidentDate.Equal(claim.IncidentDate.Time) {
			return models.Finding{
				FlagType: models.FlagDuplicateClaim,
				Severity: models.SeverityHigh,
				Description: fmt.Sprintf("same owner, incident date %s and claim type %s as claim %s",
					claim.IncidentDate, claim.ClaimType, other.ID),
			}, true
		}
	}
	return models.Finding{}, false
}

// checkOutlier flags amounts above the per-type hard cap (high) or above
// mean + k standard deviations of the other claims of that type (medium).
func checkOutlier(claim *claimmodels.Claim, sameType []*claimmodels.Claim, cfg Config) (models.Finding, bool) {
	if limit, ok := cfg.HardCaps[claim.ClaimType]; ok && limit > 0 && claim.AmountClaimed > limit {
		return models.Finding{
			FlagType:    models.FlagAmountOutlier,
			Severity:    models.SeverityHigh,
			Description: fmt.Sprintf("amount %s exceeds %s cap of %s", claim.AmountClaimed, claim.ClaimType, limit),
		}, true
	}

	samples := make([]float64, 0, len(sameType))
	for _, other := range sameType {
		if other.ID == claim.ID || other.ClaimType != claim.ClaimType {
			continue
		}
		samples = append(samples, other.AmountClaimed.Float())
	}
	if len(samples) == 0 || len(samples) < cfg.OutlierMinSamples {
		return models.Finding{}, false
	}

	mean, stddev := meanStdDev(samples)
	threshold := mean + cfg.OutlierStdDevs*stddev
	if claim.AmountClaimed.Float() <= threshold {
		return models.Finding{}, false
	}
	return models.Finding{
		FlagType: models.FlagAmountOutlier,
		Severity: models.SeverityMedium,
		Description: fmt.Sprintf("amount %s is above %.2f (mean %.2f + %.1f sd over %d %s claims)",
			claim.AmountClaimed, threshold, mean, cfg.OutlierStdDevs, len(samples), claim.ClaimType),
	}, true
}

// checkVelocity counts the owner's claims created inside the window ending
// at the evaluated claim's creation, the claim itself included. Twice the
// limit escalates to high.
func checkVelocity(claim *claimmodels.Claim, owned []*claimmodels.Claim, cfg Config) (models.Finding, bool) {
	if cfg.VelocityMaxClaims <= 0 || cfg.VelocityWindow <= 0 {
		return models.Finding{}, false
	}
	start := claim.CreatedAt.Add(-cfg.VelocityWindow)
	count := 1
	for _, other := range owned {
		if other.ID == claim.ID || other.OwnerID != claim.OwnerID {
			continue
		}
		if other.CreatedAt.After(start) && !other.CreatedAt.After(claim.CreatedAt) {
			count++
		}
	}
	if count <= cfg.VelocityMaxClaims {
		return models.Finding{}, false
	}
	severity := models.SeverityMedium
	if count >= 2*cfg.VelocityMaxClaims {
		severity = models.SeverityHigh
	}
	return models.Finding{
		FlagType:    models.FlagVelocity,
		Severity:    severity,
		Description: fmt.Sprintf("%d claims by owner within %s (limit %d)", count, cfg.VelocityWindow, cfg.VelocityMaxClaims),
	}, true
}

func meanStdDev(xs []float64) (mean, stddev float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
