package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newClaim(owner string, created time.Time) *models.Claim {
	c, err := models.NewClaim(models.ClaimDraft{
		OwnerID:       owner,
		ClaimType:     models.ClaimTypeTheft,
		InsuranceType: models.InsuranceHome,
		AmountClaimed: models.AmountFromUnits(300),
		IncidentDate:  models.NewDate(created.AddDate(0, 0, -1)),
		Description:   "bike stolen",
		DocumentRefs:  []string{"doc-a"},
	}, created)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	s.Run("round trips a claim", func() {
		c := s.newClaim("o1", s.now)
		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c, found)
	})

	s.Run("returned claim is a copy", func() {
		c := s.newClaim("o1", s.now)
		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		found.Status = models.StatusPaid
		found.DocumentRefs[0] = "x"

		again, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, again.Status)
		s.Equal("doc-a", again.DocumentRefs[0])
	})

	s.Run("duplicate id conflicts", func() {
		c := s.newClaim("o1", s.now)
		s.ErrorIs(s.store.Create(s.ctx, c), sentinel.ErrConflict)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(s.ctx, domain.NewClaimID())
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.History(s.ctx, domain.NewClaimID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestListing() {
	old := s.newClaim("o1", s.now.Add(-48*time.Hour))
	mid := s.newClaim("o1", s.now.Add(-24*time.Hour))
	other := s.newClaim("o2", s.now)

	byOwner, err := s.store.ListByOwner(s.ctx, "o1")
	s.Require().NoError(err)
	s.Require().Len(byOwner, 2)
	s.Equal(mid.ID, byOwner[0].ID, "newest first")
	s.Equal(old.ID, byOwner[1].ID)

	recent, err := s.store.ListAll(s.ctx, models.Filter{CreatedFrom: s.now.Add(-time.Hour)})
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(other.ID, recent[0].ID)
}

func (s *InMemoryStoreSuite) transition(c *models.Claim, to models.Status, at time.Time) error {
	return s.store.RunInTx(s.ctx, c.ID, func(_ context.Context, tx Tx) error {
		cur, err := tx.ClaimForUpdate(s.ctx, c.ID)
		if err != nil {
			return err
		}
		if err := tx.UpdateStatus(s.ctx, c.ID, cur.Status, to, at); err != nil {
			return err
		}
		return tx.Append(s.ctx, &models.TrackingEvent{
			ClaimID: c.ID, FromStatus: cur.Status, ToStatus: to, Actor: domain.SystemActor, Timestamp: at,
		})
	})
}

func (s *InMemoryStoreSuite) TestRunInTx_CommitsStatusAndEventTogether() {
	c := s.newClaim("o1", s.now)
	at := s.now.Add(time.Minute)
	s.Require().NoError(s.transition(c, models.StatusUnderReview, at))

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, got.Status)
	s.Equal(at, got.UpdatedAt)

	history, err := s.store.History(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(models.StatusSubmitted, history[0].FromStatus)
	s.Equal(models.StatusUnderReview, history[0].ToStatus)
}

func (s *InMemoryStoreSuite) TestRunInTx_ErrorDiscardsStagedWrites() {
	c := s.newClaim("o1", s.now)
	boom := errors.New("storage unavailable")

	err := s.store.RunInTx(s.ctx, c.ID, func(_ context.Context, tx Tx) error {
		cur, err := tx.ClaimForUpdate(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Require().NoError(tx.UpdateStatus(s.ctx, c.ID, cur.Status, models.StatusRejected, s.now.Add(time.Second)))
		s.Require().NoError(tx.Append(s.ctx, &models.TrackingEvent{
			ClaimID: c.ID, FromStatus: cur.Status, ToStatus: models.StatusRejected, Timestamp: s.now.Add(time.Second),
		}))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusSubmitted, got.Status)
	history, err := s.store.History(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *InMemoryStoreSuite) TestAppend_RejectsDuplicateTuple() {
	c := s.newClaim("o1", s.now)
	at := s.now.Add(time.Minute)
	s.Require().NoError(s.transition(c, models.StatusUnderReview, at))

	err := s.store.RunInTx(s.ctx, c.ID, func(_ context.Context, tx Tx) error {
		return tx.Append(s.ctx, &models.TrackingEvent{
			ClaimID: c.ID, FromStatus: models.StatusSubmitted, ToStatus: models.StatusUnderReview, Timestamp: at,
		})
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestUpdateStatus_StaleFromConflicts() {
	c := s.newClaim("o1", s.now)
	err := s.store.RunInTx(s.ctx, c.ID, func(_ context.Context, tx Tx) error {
		if _, err := tx.ClaimForUpdate(s.ctx, c.ID); err != nil {
			return err
		}
		return tx.UpdateStatus(s.ctx, c.ID, models.StatusDraft, models.StatusSubmitted, s.now.Add(time.Second))
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *InMemoryStoreSuite) TestUpdateStatus_WithoutClaimForUpdate() {
	c := s.newClaim("o1", s.now)
	at := s.now.Add(time.Second)

	s.Require().NoError(s.store.RunInTx(s.ctx, c.ID, func(ctx context.Context, tx Tx) error {
		return tx.UpdateStatus(ctx, c.ID, models.StatusSubmitted, models.StatusUnderReview, at)
	}))
	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, got.Status)

	err = s.store.RunInTx(s.ctx, c.ID, func(ctx context.Context, tx Tx) error {
		return tx.UpdateStatus(ctx, c.ID, models.StatusSubmitted, models.StatusApproved, at.Add(time.Second))
	})
	s.ErrorIs(err, sentinel.ErrConflict, "compare-and-set on the stored status")

	missing := domain.NewClaimID()
	err = s.store.RunInTx(s.ctx, missing, func(ctx context.Context, tx Tx) error {
		return tx.UpdateStatus(ctx, missing, models.StatusSubmitted, models.StatusUnderReview, at)
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestRunInTx_SerializesSameClaim checks that concurrent units on one claim
// observe each other's commits: only one can move it out of submitted.
func (s *InMemoryStoreSuite) TestRunInTx_SerializesSameClaim() {
	c := s.newClaim("o1", s.now)
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.RunInTx(s.ctx, c.ID, func(_ context.Context, tx Tx) error {
				cur, err := tx.ClaimForUpdate(s.ctx, c.ID)
				if err != nil {
					return err
				}
				if cur.Status != models.StatusSubmitted {
					return sentinel.ErrConflict
				}
				at := cur.TransitionTime(s.now.Add(time.Duration(i) * time.Millisecond))
				if err := tx.UpdateStatus(s.ctx, c.ID, cur.Status, models.StatusUnderReview, at); err != nil {
					return err
				}
				return tx.Append(s.ctx, &models.TrackingEvent{
					ClaimID: c.ID, FromStatus: cur.Status, ToStatus: models.StatusUnderReview, Timestamp: at,
				})
			})
			if err == nil {
				successes.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
	history, err := s.store.History(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *InMemoryStoreSuite) TestRunInTx_CancelledContext() {
	c := s.newClaim("o1", s.now)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	called := false
	err := s.store.RunInTx(ctx, c.ID, func(context.Context, Tx) error {
		called = true
		return nil
	})
	s.Error(err)
	s.False(called)
}
