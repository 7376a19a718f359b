package analytics

import (
	"slices"
	"strings"
	"time"

	claimmodels "claimtriage/internal/claims/models"
	fraudmodels "claimtriage/internal/fraud/models"
	"claimtriage/pkg/domain"
)

// Report is a dashboard snapshot. Every known status, claim type and
// severity appears in the maps, with zero counts where nothing matched.
type Report struct {
	GeneratedAt               time.Time                                    `json:"generated_at"`
	TotalClaims               int                                          `json:"total_claims"`
	ByStatus                  map[claimmodels.Status]int                   `json:"by_status"`
	ByClaimType               map[claimmodels.ClaimType]int                `json:"by_claim_type"`
	UnresolvedFlagsBySeverity map[fraudmodels.Severity]int                 `json:"unresolved_flags_by_severity"`
	AverageAmountByType       map[claimmodels.ClaimType]claimmodels.Amount `json:"average_amount_by_claim_type"`
	MonthlyVolume             []MonthBucket                                `json:"monthly_volume"`
}

// MonthBucket counts claims created in one calendar month (UTC).
type MonthBucket struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

const monthLayout = "2006-01"

// Build aggregates claims and their unresolved flags. Flags whose claim is
// not among claims are ignored so a filtered report stays self-consistent.
func Build(claims []*claimmodels.Claim, openFlags []*fraudmodels.Flag, now time.Time) *Report {
	r := &Report{
		GeneratedAt:               now.UTC(),
		TotalClaims:               len(claims),
		ByStatus:                  make(map[claimmodels.Status]int, len(claimmodels.AllStatuses)),
		ByClaimType:               make(map[claimmodels.ClaimType]int, len(claimmodels.AllClaimTypes)),
		UnresolvedFlagsBySeverity: make(map[fraudmodels.Severity]int, len(fraudmodels.AllSeverities)),
		AverageAmountByType:       make(map[claimmodels.ClaimType]claimmodels.Amount, len(claimmodels.AllClaimTypes)),
		MonthlyVolume:             []MonthBucket{},
	}
	for _, s := range claimmodels.AllStatuses {
		r.ByStatus[s] = 0
	}
	for _, t := range claimmodels.AllClaimTypes {
		r.ByClaimType[t] = 0
		r.AverageAmountByType[t] = 0
	}
	for _, s := range fraudmodels.AllSeverities {
		r.UnresolvedFlagsBySeverity[s] = 0
	}

	sums := make(map[claimmodels.ClaimType]int64)
	months := make(map[string]int)
	inScope := make(map[domain.ClaimID]struct{}, len(claims))
	for _, c := range claims {
		r.ByStatus[c.Status]++
		r.ByClaimType[c.ClaimType]++
		sums[c.ClaimType] += c.AmountClaimed.Minor()
		months[c.CreatedAt.UTC().Format(monthLayout)]++
		inScope[c.ID] = struct{}{}
	}
	for t, sum := range sums {
		n := int64(r.ByClaimType[t])
		// round half up in minor units
		r.AverageAmountByType[t] = claimmodels.Amount((sum + n/2) / n)
	}
	for _, f := range openFlags {
		if f.Resolved {
			continue
		}
		if _, ok := inScope[f.ClaimID]; ok {
			r.UnresolvedFlagsBySeverity[f.Severity]++
		}
	}

	for m, n := range months {
		r.MonthlyVolume = append(r.MonthlyVolume, MonthBucket{Month: m, Count: n})
	}
	slices.SortFunc(r.MonthlyVolume, func(a, b MonthBucket) int {
		return strings.Compare(a.Month, b.Month)
	})
	return r
}
