package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Triage,Publisher,SnapshotInvalidator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"claimtriage/internal/claims/models"
	"claimtriage/internal/claims/service/mocks"
	claimstore "claimtriage/internal/claims/store"
	fraudmodels "claimtriage/internal/fraud/models"
	fraudservice "claimtriage/internal/fraud/service"
	flagstore "claimtriage/internal/fraud/store"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/testutil"
)

type ClaimServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	publisher *mocks.MockPublisher
	store     *claimstore.InMemory
	flags     *flagstore.InMemory
	fraud     *fraudservice.Service
	recorder  *audit.Recorder
	service   *Service
	now       time.Time
	ctx       context.Context
}

func TestClaimServiceSuite(t *testing.T) {
	suite.Run(t, new(ClaimServiceSuite))
}

func (s *ClaimServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.store = claimstore.NewInMemory()
	s.flags = flagstore.NewInMemory()
	s.fraud = fraudservice.New(s.store, s.flags)
	s.recorder = &audit.Recorder{}
	s.now = time.Date(2026, 7, 1, 8, 30, 0, 0, time.UTC)
	s.ctx = testutil.FixedTime(s.now)
	s.service = New(s.store, s.fraud,
		WithPublisher(s.publisher),
		WithAuditLogger(audit.NewLogger(nil, s.recorder)),
	)
}

func (s *ClaimServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ClaimServiceSuite) draft(owner string, ct models.ClaimType, incident time.Time) models.ClaimDraft {
	return models.ClaimDraft{
		OwnerID:       owner,
		ClaimType:     ct,
		InsuranceType: models.InsuranceAuto,
		AmountClaimed: models.AmountFromUnits(1200),
		IncidentDate:  models.NewDate(incident),
		Description:   "hail damage to bonnet",
		DocumentRefs:  []string{"blob://photos/1.jpg"},
	}
}

func (s *ClaimServiceSuite) create(d models.ClaimDraft) *CreateResult {
	res, err := s.service.CreateClaim(s.ctx, d, domain.OwnerActor(d.OwnerID))
	s.Require().NoError(err)
	return res
}

func (s *ClaimServiceSuite) acceptPublishes() {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(true).AnyTimes()
}

func (s *ClaimServiceSuite) TestLifecycleToPaid() {
	var published []models.ClaimTransitioned
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev models.ClaimTransitioned) bool {
			published = append(published, ev)
			return true
		}).Times(3)

	c := s.create(s.draft("alice", models.ClaimTypeDamage, s.now.AddDate(0, 0, -2))).Claim
	s.Equal(models.StatusSubmitted, c.Status)

	steps := []struct {
		to    models.Status
		actor domain.Actor
	}{
		{models.StatusUnderReview, domain.SystemActor},
		{models.StatusApproved, domain.AdminActor("adjuster-1")},
		{models.StatusPaid, domain.SystemActor},
	}
	last := c.UpdatedAt
	for _, step := range steps {
		got, err := s.service.Transition(s.ctx, c.ID, step.to, step.actor, "")
		s.Require().NoError(err, "to %s", step.to)
		s.Equal(step.to, got.Status)
		s.True(got.UpdatedAt.After(last), "updated_at strictly increases")
		last = got.UpdatedAt
	}

	history, err := s.service.ClaimHistory(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.Equal(models.StatusSubmitted, history[0].FromStatus)
	s.Equal(models.StatusPaid, history[2].ToStatus)
	s.NoError(models.VerifyChain(models.StatusSubmitted, history))

	stored, err := s.service.GetClaim(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPaid, stored.Status)
	s.Equal(history[2].Timestamp, stored.UpdatedAt)

	s.Require().Len(published, 3)
	s.Equal("alice", published[0].OwnerID)
	s.Equal(models.StatusPaid, published[2].ToStatus)
}

func (s *ClaimServiceSuite) TestTerminalStatesRejectEverything() {
	s.acceptPublishes()
	c := s.create(s.draft("bob", models.ClaimTypeTheft, s.now.AddDate(0, 0, -1))).Claim
	_, err := s.service.Transition(s.ctx, c.ID, models.StatusRejected, domain.AdminActor("a"), "no police report")
	s.Require().NoError(err)

	for _, to := range models.AllStatuses {
		for _, actor := range []domain.Actor{domain.SystemActor, domain.AdminActor("a"), domain.OwnerActor("bob")} {
			_, err := s.service.Transition(s.ctx, c.ID, to, actor, "")
			s.True(dErrors.HasCode(err, dErrors.CodeTerminalState), "%s by %s: %v", to, actor, err)
		}
	}
	history, err := s.service.ClaimHistory(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *ClaimServiceSuite) TestIllegalSkipLeavesStateUnchanged() {
	c := s.create(s.draft("carol", models.ClaimTypeAccident, s.now.AddDate(0, 0, -5))).Claim

	_, err := s.service.Transition(s.ctx, c.ID, models.StatusApproved, domain.AdminActor("a"), "")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	var te *models.TransitionError
	s.Require().ErrorAs(err, &te)
	s.Equal(models.StatusSubmitted, te.From)
	s.Equal(models.StatusApproved, te.To)

	stored, err := s.service.GetClaim(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, stored.Status)
	s.Equal(c.UpdatedAt, stored.UpdatedAt)
	history, err := s.service.ClaimHistory(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(history)
	s.Contains(s.recorder.Actions(), audit.EventTransitionRejected)
}

func (s *ClaimServiceSuite) TestRoleGates() {
	c := s.create(s.draft("dave", models.ClaimTypeOther, s.now.AddDate(0, 0, -1))).Claim

	_, err := s.service.Transition(s.ctx, c.ID, models.StatusUnderReview, domain.OwnerActor("dave"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.service.Transition(s.ctx, c.ID, models.StatusRejected, domain.SystemActor, "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.service.Transition(s.ctx, c.ID, models.Status("archived"), domain.AdminActor("a"), "")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ClaimServiceSuite) TestDraftSubmission() {
	s.acceptPublishes()
	d := s.draft("erin", models.ClaimTypeMedical, s.now.AddDate(0, 0, 3))
	d.InitialStatus = models.StatusDraft
	c := s.create(d).Claim
	s.Equal(models.StatusDraft, c.Status)

	s.Run("another owner cannot submit", func() {
		_, err := s.service.Transition(s.ctx, c.ID, models.StatusSubmitted, domain.OwnerActor("mallory"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("future incident date blocks submission", func() {
		_, err := s.service.Transition(s.ctx, c.ID, models.StatusSubmitted, domain.OwnerActor("erin"), "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		stored, err := s.service.GetClaim(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, stored.Status)
	})

	later := testutil.FixedTime(s.now.AddDate(0, 0, 4))
	got, err := s.service.Transition(later, c.ID, models.StatusSubmitted, domain.OwnerActor("erin"), "ready")
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, got.Status)
}

func (s *ClaimServiceSuite) TestHighSeverityFlagHoldsSystemRouting() {
	s.acceptPublishes()
	incident := s.now.AddDate(0, 0, -4)
	s.create(s.draft("frank", models.ClaimTypeTheft, incident))
	res := s.create(s.draft("frank", models.ClaimTypeTheft, incident))
	s.Require().Len(res.Flags, 1)
	s.Equal(fraudmodels.SeverityHigh, res.Flags[0].Severity)

	_, err := s.service.Transition(s.ctx, res.Claim.ID, models.StatusUnderReview, domain.SystemActor, "")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	s.Contains(err.Error(), "fraud")

	got, err := s.service.Transition(s.ctx, res.Claim.ID, models.StatusUnderReview, domain.AdminActor("lead"), "manual review")
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, got.Status)

	s.Run("rejection from review is unconditional on flags", func() {
		_, err := s.service.Transition(s.ctx, res.Claim.ID, models.StatusRejected, domain.AdminActor("lead"), "")
		s.NoError(err)
	})
}

func (s *ClaimServiceSuite) TestResolvedFlagReleasesHold() {
	s.acceptPublishes()
	incident := s.now.AddDate(0, 0, -4)
	s.create(s.draft("gina", models.ClaimTypeDamage, incident))
	res := s.create(s.draft("gina", models.ClaimTypeDamage, incident))
	s.Require().Len(res.Flags, 1)

	_, err := s.fraud.Resolve(s.ctx, res.Flags[0].ID, domain.AdminActor("lead"))
	s.Require().NoError(err)

	got, err := s.service.Transition(s.ctx, res.Claim.ID, models.StatusUnderReview, domain.SystemActor, "")
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, got.Status)
}

func (s *ClaimServiceSuite) TestConcurrentTransitionsHaveOneWinner() {
	s.acceptPublishes()
	c := s.create(s.draft("hank", models.ClaimTypeAccident, s.now.AddDate(0, 0, -1))).Claim

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Transition(s.ctx, c.ID, models.StatusUnderReview, domain.AdminActor("a"), "")
			switch {
			case err == nil:
				ok.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidTransition):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	s.EqualValues(1, ok.Load())
	s.EqualValues(19, rejected.Load())
	history, err := s.service.ClaimHistory(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *ClaimServiceSuite) TestStorageFailureRollsBackStatus() {
	c := s.create(s.draft("ivy", models.ClaimTypeOther, s.now.AddDate(0, 0, -1))).Claim
	svc := New(failingLedger{s.store}, s.fraud, WithPublisher(s.publisher))

	_, err := svc.Transition(s.ctx, c.ID, models.StatusUnderReview, domain.AdminActor("a"), "")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeStorage))

	stored, err := s.service.GetClaim(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, stored.Status)
	history, err := s.service.ClaimHistory(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ClaimServiceSuite) TestDroppedPublishDoesNotFailTransition() {
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(false).Times(1)
	c := s.create(s.draft("jack", models.ClaimTypeOther, s.now.AddDate(0, 0, -1))).Claim

	got, err := s.service.Transition(s.ctx, c.ID, models.StatusUnderReview, domain.SystemActor, "")
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, got.Status)
}

func (s *ClaimServiceSuite) TestWritesInvalidateSnapshots() {
	s.acceptPublishes()
	snapshots := mocks.NewMockSnapshotInvalidator(s.ctrl)
	svc := New(s.store, s.fraud, WithPublisher(s.publisher), WithSnapshotInvalidator(snapshots))

	snapshots.EXPECT().Invalidate(gomock.Any()).Return(nil).Times(1)
	res, err := svc.CreateClaim(s.ctx, s.draft("kim", models.ClaimTypeOther, s.now.AddDate(0, 0, -1)), domain.OwnerActor("kim"))
	s.Require().NoError(err)

	s.Run("rejected create leaves snapshots alone", func() {
		_, err := svc.CreateClaim(s.ctx, models.ClaimDraft{OwnerID: "kim"}, domain.OwnerActor("kim"))
		s.Error(err)
	})

	s.Run("committed transition invalidates", func() {
		snapshots.EXPECT().Invalidate(gomock.Any()).Return(errors.New("redis down")).Times(1)
		got, err := svc.Transition(s.ctx, res.Claim.ID, models.StatusUnderReview, domain.SystemActor, "")
		s.Require().NoError(err, "a failed invalidation does not fail the write")
		s.Equal(models.StatusUnderReview, got.Status)
	})

	s.Run("refused transition leaves snapshots alone", func() {
		_, err := svc.Transition(s.ctx, res.Claim.ID, models.StatusPaid, domain.SystemActor, "")
		s.Error(err)
	})
}

func (s *ClaimServiceSuite) TestCreateClaim() {
	s.Run("owner cannot file for someone else", func() {
		_, err := s.service.CreateClaim(s.ctx, s.draft("kim", models.ClaimTypeOther, s.now), domain.OwnerActor("lee"))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner id defaults to the acting owner", func() {
		d := s.draft("", models.ClaimTypeOther, s.now)
		res, err := s.service.CreateClaim(s.ctx, d, domain.OwnerActor("kim"))
		s.Require().NoError(err)
		s.Equal("kim", res.Claim.OwnerID)
	})

	s.Run("validation errors surface", func() {
		d := s.draft("kim", models.ClaimTypeOther, s.now)
		d.AmountClaimed = 0
		_, err := s.service.CreateClaim(s.ctx, d, domain.OwnerActor("kim"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("admin may file on behalf of an owner", func() {
		res, err := s.service.CreateClaim(s.ctx, s.draft("kim", models.ClaimTypeAccident, s.now), domain.AdminActor("desk"))
		s.Require().NoError(err)
		s.Equal("kim", res.Claim.OwnerID)
	})
}

func (s *ClaimServiceSuite) TestCreateClaim_TriageFailureKeepsClaim() {
	triage := mocks.NewMockTriage(s.ctrl)
	triage.EXPECT().EvaluateClaim(gomock.Any(), gomock.Any()).Return(nil, errors.New("flag store down"))
	svc := New(s.store, triage)

	res, err := svc.CreateClaim(s.ctx, s.draft("liz", models.ClaimTypeOther, s.now), domain.OwnerActor("liz"))
	s.Require().NoError(err)
	s.Empty(res.Flags)

	stored, err := svc.GetClaim(s.ctx, res.Claim.ID)
	s.Require().NoError(err)
	s.Equal(res.Claim.ID, stored.ID)
}

func (s *ClaimServiceSuite) TestTriageErrorBlocksSystemRouting() {
	triage := mocks.NewMockTriage(s.ctrl)
	triage.EXPECT().EvaluateClaim(gomock.Any(), gomock.Any()).Return(nil, nil)
	triage.EXPECT().HasUnresolvedHigh(gomock.Any(), gomock.Any()).
		Return(false, dErrors.New(dErrors.CodeStorage, "flag store down"))
	svc := New(s.store, triage)

	res, err := svc.CreateClaim(s.ctx, s.draft("max", models.ClaimTypeOther, s.now), domain.OwnerActor("max"))
	s.Require().NoError(err)
	_, err = svc.Transition(s.ctx, res.Claim.ID, models.StatusUnderReview, domain.SystemActor, "")
	s.True(dErrors.HasCode(err, dErrors.CodeStorage))
}

func (s *ClaimServiceSuite) TestReads() {
	_, err := s.service.GetClaim(s.ctx, domain.NewClaimID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.ClaimHistory(s.ctx, domain.NewClaimID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Transition(s.ctx, domain.NewClaimID(), models.StatusUnderReview, domain.SystemActor, "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.ListAllClaims(s.ctx, models.Filter{Statuses: []models.Status{"lost"}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.ListClaims(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.create(s.draft("nina", models.ClaimTypeOther, s.now))
	s.create(s.draft("omar", models.ClaimTypeOther, s.now))
	mine, err := s.service.ListClaims(s.ctx, "nina")
	s.Require().NoError(err)
	s.Len(mine, 1)
	all, err := s.service.ListAllClaims(s.ctx, models.Filter{})
	s.Require().NoError(err)
	s.Len(all, 2)
}

// failingLedger stages status writes normally but fails every ledger append.
type failingLedger struct {
	*claimstore.InMemory
}

func (f failingLedger) RunInTx(ctx context.Context, id domain.ClaimID, fn func(ctx context.Context, tx claimstore.Tx) error) error {
	return f.InMemory.RunInTx(ctx, id, func(ctx context.Context, tx claimstore.Tx) error {
		return fn(ctx, failingAppendTx{tx})
	})
}

type failingAppendTx struct {
	claimstore.Tx
}

func (failingAppendTx) Append(context.Context, *models.TrackingEvent) error {
	return errors.New("ledger unavailable")
}
