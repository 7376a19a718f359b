package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/fraud/models"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/testutil"
)

var base = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func claim(owner string, ct claimmodels.ClaimType, amount int64, incident time.Time, created time.Time) *claimmodels.Claim {
	return &claimmodels.Claim{
		ID:            domain.NewClaimID(),
		OwnerID:       owner,
		ClaimType:     ct,
		InsuranceType: claimmodels.InsuranceAuto,
		AmountClaimed: claimmodels.AmountFromUnits(amount),
		IncidentDate:  claimmodels.NewDate(incident),
		Description:   "rear-ended at a light",
		Status:        claimmodels.StatusSubmitted,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func flagTypes(fs []models.Finding) []models.FlagType {
	out := make([]models.FlagType, len(fs))
	for i, f := range fs {
		out[i] = f.FlagType
	}
	return out
}

func TestEvaluate_CleanClaim(t *testing.T) {
	c := claim("u1", claimmodels.ClaimTypeAccident, 500, base.AddDate(0, 0, -2), base)
	assert.Empty(t, Evaluate(c, Evidence{OwnerClaims: []*claimmodels.Claim{c}}, DefaultConfig()))
}

func TestDuplicate(t *testing.T) {
	incident := base.AddDate(0, 0, -3)
	existing := claim("u1", claimmodels.ClaimTypeTheft, 100, incident, base.Add(-time.Hour))
	c := claim("u1", claimmodels.ClaimTypeTheft, 120, incident, base)

	t.Run("same owner date and type", func(t *testing.T) {
		found := Evaluate(c, Evidence{OwnerClaims: []*claimmodels.Claim{existing, c}}, DefaultConfig())
		require.Equal(t, []models.FlagType{models.FlagDuplicateClaim}, flagTypes(found))
		assert.Equal(t, models.SeverityHigh, found[0].Severity)
		assert.Contains(t, found[0].Description, existing.ID.String())
	})

	t.Run("rejected claim does not count", func(t *testing.T) {
		rejected := *existing
		rejected.Status = claimmodels.StatusRejected
		assert.Empty(t, Evaluate(c, Evidence{OwnerClaims: []*claimmodels.Claim{&rejected}}, DefaultConfig()))
	})

	t.Run("different claim type does not count", func(t *testing.T) {
		other := *existing
		other.ClaimType = claimmodels.ClaimTypeDamage
		assert.Empty(t, Evaluate(c, Evidence{OwnerClaims: []*claimmodels.Claim{&other}}, DefaultConfig()))
	})
}

func TestOutlier(t *testing.T) {
	var peers []*claimmodels.Claim
	for _, amt := range []int64{100, 110, 90, 105, 95, 100} {
		peers = append(peers, claim("peer", claimmodels.ClaimTypeMedical, amt, base.AddDate(0, -1, 0), base.AddDate(0, -1, 0)))
	}

	t.Run("far above the mean", func(t *testing.T) {
		c := claim("u1", claimmodels.ClaimTypeMedical, 10000, base, base)
		found := Evaluate(c, Evidence{TypeClaims: peers}, DefaultConfig())
		require.Equal(t, []models.FlagType{models.FlagAmountOutlier}, flagTypes(found))
		assert.Equal(t, models.SeverityMedium, found[0].Severity)
	})

	t.Run("within range", func(t *testing.T) {
		c := claim("u1", claimmodels.ClaimTypeMedical, 115, base, base)
		assert.Empty(t, Evaluate(c, Evidence{TypeClaims: peers}, DefaultConfig()))
	})

	t.Run("too few samples", func(t *testing.T) {
		c := claim("u1", claimmodels.ClaimTypeMedical, 10000, base, base)
		assert.Empty(t, Evaluate(c, Evidence{TypeClaims: peers[:3]}, DefaultConfig()))
	})

	t.Run("hard cap is high regardless of samples", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.HardCaps = map[claimmodels.ClaimType]claimmodels.Amount{
			claimmodels.ClaimTypeMedical: claimmodels.AmountFromUnits(5000),
		}
		c := claim("u1", claimmodels.ClaimTypeMedical, 5001, base, base)
		found := Evaluate(c, Evidence{}, cfg)
		require.Len(t, found, 1)
		assert.Equal(t, models.FlagAmountOutlier, found[0].FlagType)
		assert.Equal(t, models.SeverityHigh, found[0].Severity)
	})
}

func TestVelocity(t *testing.T) {
	cfg := DefaultConfig()
	var owned []*claimmodels.Claim
	for i := 1; i <= 3; i++ {
		owned = append(owned, claim("u1", claimmodels.AllClaimTypes[i], 100,
			base.AddDate(0, 0, -i*2), base.AddDate(0, 0, -i)))
	}
	c := claim("u1", claimmodels.ClaimTypeOther, 100, base, base)

	found := Evaluate(c, Evidence{OwnerClaims: append(owned, c)}, cfg)
	require.Equal(t, []models.FlagType{models.FlagVelocity}, flagTypes(found))
	assert.Equal(t, models.SeverityMedium, found[0].Severity)

	t.Run("old claims fall out of the window", func(t *testing.T) {
		stale := claim("u1", claimmodels.ClaimTypeOther, 100, base.AddDate(0, -3, 0), base.AddDate(0, -2, 0))
		assert.Empty(t, Evaluate(c, Evidence{OwnerClaims: []*claimmodels.Claim{owned[0], owned[1], stale}}, cfg))
	})

	t.Run("twice the limit escalates", func(t *testing.T) {
		many := append([]*claimmodels.Claim{}, owned...)
		for i := 0; i < 2; i++ {
			many = append(many, claim("u1", claimmodels.ClaimTypeOther, 100, base.AddDate(0, 0, -20-i), base.AddDate(0, 0, -10-i)))
		}
		found := Evaluate(c, Evidence{OwnerClaims: many}, cfg)
		require.Len(t, found, 1)
		assert.Equal(t, models.SeverityHigh, found[0].Severity)
	})
}

func TestEvaluate_FindingsAccumulateInRuleOrder(t *testing.T) {
	incident := base.AddDate(0, 0, -1)
	var history []*claimmodels.Claim

	testutil.Given(t, "an owner with three claims filed this week", func(t *testing.T) {
		history = []*claimmodels.Claim{
			claim("u9", claimmodels.ClaimTypeDamage, 300, incident, base.AddDate(0, 0, -6)),
			claim("u9", claimmodels.ClaimTypeMedical, 80, base.AddDate(0, 0, -20), base.AddDate(0, 0, -4)),
			claim("u9", claimmodels.ClaimTypeOther, 40, base.AddDate(0, 0, -9), base.AddDate(0, 0, -2)),
		}
	})

	testutil.When(t, "a fourth claim repeats the first incident", func(t *testing.T) {
		c := claim("u9", claimmodels.ClaimTypeDamage, 310, incident, base)
		found := Evaluate(c, Evidence{OwnerClaims: append(history, c)}, DefaultConfig())

		testutil.Then(t, "duplicate is reported before velocity", func(t *testing.T) {
			require.Equal(t, []models.FlagType{models.FlagDuplicateClaim, models.FlagVelocity}, flagTypes(found))
			assert.Equal(t, models.SeverityHigh, found[0].Severity)
			assert.Equal(t, models.SeverityMedium, found[1].Severity)
		})
	})
}
