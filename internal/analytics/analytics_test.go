package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	claimmodels "claimtriage/internal/claims/models"
	claimsservice "claimtriage/internal/claims/service"
	claimstore "claimtriage/internal/claims/store"
	fraudmodels "claimtriage/internal/fraud/models"
	"claimtriage/internal/fraud/rules"
	fraudservice "claimtriage/internal/fraud/service"
	flagstore "claimtriage/internal/fraud/store"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/testutil"
)

func mkClaim(status claimmodels.Status, ct claimmodels.ClaimType, units int64, created time.Time) *claimmodels.Claim {
	return &claimmodels.Claim{
		ID:            domain.NewClaimID(),
		OwnerID:       "owner",
		ClaimType:     ct,
		InsuranceType: claimmodels.InsuranceHome,
		AmountClaimed: claimmodels.AmountFromUnits(units),
		IncidentDate:  claimmodels.NewDate(created),
		Description:   "d",
		Status:        status,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestBuild(t *testing.T) {
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	a := mkClaim(claimmodels.StatusSubmitted, claimmodels.ClaimTypeTheft, 100, mar)
	b := mkClaim(claimmodels.StatusApproved, claimmodels.ClaimTypeTheft, 201, jan)
	c := mkClaim(claimmodels.StatusPaid, claimmodels.ClaimTypeMedical, 50, jan)

	open := fraudmodels.NewFlag(a.ID, fraudmodels.Finding{FlagType: fraudmodels.FlagVelocity, Severity: fraudmodels.SeverityHigh}, mar)
	resolved := fraudmodels.NewFlag(b.ID, fraudmodels.Finding{FlagType: fraudmodels.FlagVelocity, Severity: fraudmodels.SeverityLow}, mar)
	require.NoError(t, resolved.Resolve(domain.AdminActor("x"), mar))
	outOfScope := fraudmodels.NewFlag(domain.NewClaimID(), fraudmodels.Finding{FlagType: fraudmodels.FlagVelocity, Severity: fraudmodels.SeverityMedium}, mar)

	r := Build([]*claimmodels.Claim{a, b, c}, []*fraudmodels.Flag{open, resolved, outOfScope}, mar)

	assert.Equal(t, 3, r.TotalClaims)
	assert.Len(t, r.ByStatus, len(claimmodels.AllStatuses))
	assert.Equal(t, 1, r.ByStatus[claimmodels.StatusSubmitted])
	assert.Equal(t, 0, r.ByStatus[claimmodels.StatusRejected])
	assert.Equal(t, 2, r.ByClaimType[claimmodels.ClaimTypeTheft])
	assert.Equal(t, claimmodels.Amount(15050), r.AverageAmountByType[claimmodels.ClaimTypeTheft])
	assert.Equal(t, claimmodels.AmountFromUnits(50), r.AverageAmountByType[claimmodels.ClaimTypeMedical])
	assert.Equal(t, claimmodels.Amount(0), r.AverageAmountByType[claimmodels.ClaimTypeOther])
	assert.Equal(t, map[fraudmodels.Severity]int{
		fraudmodels.SeverityLow: 0, fraudmodels.SeverityMedium: 0, fraudmodels.SeverityHigh: 1,
	}, r.UnresolvedFlagsBySeverity)
	assert.Equal(t, []MonthBucket{{Month: "2026-01", Count: 2}, {Month: "2026-03", Count: 1}}, r.MonthlyVolume)
}

func TestFilterKey(t *testing.T) {
	a := claimmodels.Filter{ClaimTypes: []claimmodels.ClaimType{claimmodels.ClaimTypeTheft, claimmodels.ClaimTypeDamage}}
	b := claimmodels.Filter{ClaimTypes: []claimmodels.ClaimType{claimmodels.ClaimTypeDamage, claimmodels.ClaimTypeTheft}}
	assert.Equal(t, FilterKey(a), FilterKey(b))
	assert.NotEqual(t, FilterKey(a), FilterKey(claimmodels.Filter{}))
	assert.Equal(t, []claimmodels.ClaimType{claimmodels.ClaimTypeTheft, claimmodels.ClaimTypeDamage}, a.ClaimTypes, "input is not reordered")
}

type AnalyticsServiceSuite struct {
	suite.Suite
	claims  *claimstore.InMemory
	flags   *flagstore.InMemory
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestAnalyticsServiceSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceSuite))
}

func (s *AnalyticsServiceSuite) SetupTest() {
	s.claims = claimstore.NewInMemory()
	s.flags = flagstore.NewInMemory()
	s.service = New(s.claims, s.flags)
	s.now = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	s.ctx = testutil.FixedTime(s.now)
}

func (s *AnalyticsServiceSuite) seed(n int) []*claimmodels.Claim {
	out := make([]*claimmodels.Claim, 0, n)
	for i := 0; i < n; i++ {
		ct := claimmodels.AllClaimTypes[i%len(claimmodels.AllClaimTypes)]
		c := mkClaim(claimmodels.StatusSubmitted, ct, int64(100+i), s.now.AddDate(0, -(i%3), 0))
		s.Require().NoError(s.claims.Create(s.ctx, c))
		out = append(out, c)
	}
	return out
}

func (s *AnalyticsServiceSuite) TestStatusCountsMatchListing() {
	s.seed(12)
	filter := claimmodels.Filter{ClaimTypes: []claimmodels.ClaimType{claimmodels.ClaimTypeTheft, claimmodels.ClaimTypeOther}}

	report, err := s.service.DashboardSnapshot(s.ctx, filter)
	s.Require().NoError(err)
	listed, err := s.claims.ListAll(s.ctx, filter)
	s.Require().NoError(err)

	sum := 0
	for _, n := range report.ByStatus {
		sum += n
	}
	s.Equal(len(listed), sum)
	s.Equal(len(listed), report.TotalClaims)
	s.Equal(s.now, report.GeneratedAt)
}

func (s *AnalyticsServiceSuite) TestInvalidFilter() {
	_, err := s.service.DashboardSnapshot(s.ctx, claimmodels.Filter{Statuses: []claimmodels.Status{"closed"}})
	s.Error(err)
}

func (s *AnalyticsServiceSuite) TestSnapshotDuringTransitions() {
	claims := s.seed(20)
	errs := make(chan error, len(claims))
	var wg sync.WaitGroup
	for _, c := range claims {
		wg.Add(1)
		go func(id domain.ClaimID) {
			defer wg.Done()
			errs <- s.claims.RunInTx(s.ctx, id, func(ctx context.Context, tx claimstore.Tx) error {
				cur, err := tx.ClaimForUpdate(ctx, id)
				if err != nil {
					return err
				}
				at := cur.TransitionTime(s.now.Add(time.Second))
				if err := tx.UpdateStatus(ctx, id, cur.Status, claimmodels.StatusUnderReview, at); err != nil {
					return err
				}
				return tx.Append(ctx, &claimmodels.TrackingEvent{
					ClaimID: id, FromStatus: cur.Status, ToStatus: claimmodels.StatusUnderReview,
					Actor: domain.SystemActor, Timestamp: at,
				})
			})
		}(c.ID)
	}
	for i := 0; i < 10; i++ {
		report, err := s.service.DashboardSnapshot(s.ctx, claimmodels.Filter{})
		s.Require().NoError(err)
		s.Equal(20, report.ByStatus[claimmodels.StatusSubmitted]+report.ByStatus[claimmodels.StatusUnderReview])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	report, err := s.service.DashboardSnapshot(s.ctx, claimmodels.Filter{})
	s.Require().NoError(err)
	s.Equal(20, report.ByStatus[claimmodels.StatusUnderReview])
	s.Zero(report.ByStatus[claimmodels.StatusSubmitted])
}

func (s *AnalyticsServiceSuite) TestCachedSnapshotFollowsWrites() {
	cache := &memoryCache{}
	svc := New(s.claims, s.flags, WithCache(cache))
	snapshots := NewInvalidator(cache)

	cfg := rules.DefaultConfig()
	cfg.HardCaps = map[claimmodels.ClaimType]claimmodels.Amount{
		claimmodels.ClaimTypeTheft: claimmodels.AmountFromUnits(1000),
	}
	triage := fraudservice.New(s.claims, s.flags,
		fraudservice.WithRules(cfg),
		fraudservice.WithSnapshotInvalidator(snapshots),
	)
	claims := claimsservice.New(s.claims, triage, claimsservice.WithSnapshotInvalidator(snapshots))

	owner := domain.OwnerActor("owner")
	draft := func(ct claimmodels.ClaimType, units int64) claimmodels.ClaimDraft {
		return claimmodels.ClaimDraft{
			ClaimType:     ct,
			InsuranceType: claimmodels.InsuranceHome,
			AmountClaimed: claimmodels.AmountFromUnits(units),
			IncidentDate:  claimmodels.NewDate(s.now.AddDate(0, 0, -2)),
			Description:   "d",
		}
	}
	listed := func() int {
		all, err := s.claims.ListAll(s.ctx, claimmodels.Filter{})
		s.Require().NoError(err)
		return len(all)
	}
	unresolved := func(r *Report) int {
		n := 0
		for _, c := range r.UnresolvedFlagsBySeverity {
			n += c
		}
		return n
	}
	snapshot := func() *Report {
		r, err := svc.CachedSnapshot(s.ctx, claimmodels.Filter{})
		s.Require().NoError(err)
		return r
	}

	_, err := claims.CreateClaim(s.ctx, draft(claimmodels.ClaimTypeDamage, 100), owner)
	s.Require().NoError(err)
	first := snapshot()
	s.Equal(1, first.TotalClaims)
	s.Zero(unresolved(first))
	s.Same(first, snapshot(), "no write in between")

	created, err := claims.CreateClaim(s.ctx, draft(claimmodels.ClaimTypeTheft, 5000), owner)
	s.Require().NoError(err)
	s.Require().Len(created.Flags, 1)
	afterCreate := snapshot()
	s.Equal(listed(), afterCreate.TotalClaims)
	s.Equal(2, afterCreate.TotalClaims)
	s.Equal(1, unresolved(afterCreate))

	_, err = triage.Resolve(s.ctx, created.Flags[0].ID, domain.AdminActor("a1"))
	s.Require().NoError(err)
	s.Zero(unresolved(snapshot()))

	_, err = claims.Transition(s.ctx, created.Claim.ID, claimmodels.StatusUnderReview, domain.SystemActor, "")
	s.Require().NoError(err)
	s.Equal(1, snapshot().ByStatus[claimmodels.StatusUnderReview])

	s.EqualValues(4, cache.sets.Load())
}

func TestInvalidatorWithoutCache(t *testing.T) {
	var nilInvalidator *Invalidator
	require.NoError(t, nilInvalidator.Invalidate(context.Background()))
	require.NoError(t, NewInvalidator(nil).Invalidate(context.Background()))
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*Report
	sets    atomic.Int32
}

func (c *memoryCache) Get(_ context.Context, key string) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, r *Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]*Report{}
	}
	c.entries[key] = r
	c.sets.Add(1)
	return nil
}

func (c *memoryCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	return nil
}
