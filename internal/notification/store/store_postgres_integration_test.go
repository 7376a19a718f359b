//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/notification/models"
	"claimtriage/internal/notification/store"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/testutil/containers"
)

type PostgresAttemptStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresAttemptStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAttemptStoreSuite))
}

func (s *PostgresAttemptStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresAttemptStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "notification_attempts"))
}

func (s *PostgresAttemptStoreSuite) TestRecordAndList() {
	ctx := context.Background()
	claimID := domain.NewClaimID()
	at := time.Now().UTC().Truncate(time.Microsecond)

	ok := &models.Attempt{ID: models.NewAttemptID(at), ClaimID: claimID, ToStatus: claimmodels.StatusApproved,
		Destination: "a@example.com", AttemptedAt: at, Succeeded: true}
	failed := &models.Attempt{ID: models.NewAttemptID(at.Add(time.Millisecond)), ClaimID: claimID, ToStatus: claimmodels.StatusPaid,
		Destination: "a@example.com", AttemptedAt: at.Add(time.Millisecond), ErrorDetail: "timeout"}
	s.Require().NoError(s.store.Record(ctx, ok))
	s.Require().NoError(s.store.Record(ctx, failed))

	got, err := s.store.ListByClaim(ctx, claimID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(*ok, *got[0])
	s.Equal(*failed, *got[1])
}
