// Package service is the claim lifecycle entry point: creation with initial
// fraud triage, the transition authority, and read access to claims and
// their tracking history.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"claimtriage/internal/claims/metrics"
	"claimtriage/internal/claims/models"
	"claimtriage/internal/claims/store"
	fraudmodels "claimtriage/internal/fraud/models"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/platform/sentinel"
)

const defaultTxTimeout = 5 * time.Second

// Store is the claim store plus its tracking ledger.
type Store interface {
	Create(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, id domain.ClaimID) (*models.Claim, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Claim, error)
	ListAll(ctx context.Context, filter models.Filter) ([]*models.Claim, error)
	History(ctx context.Context, id domain.ClaimID) ([]*models.TrackingEvent, error)
	RunInTx(ctx context.Context, id domain.ClaimID, fn func(ctx context.Context, tx store.Tx) error) error
}

// Triage is the fraud collaborator consulted on create and on automated
// routing into review.
type Triage interface {
	EvaluateClaim(ctx context.Context, claim *models.Claim) ([]*fraudmodels.Flag, error)
	HasUnresolvedHigh(ctx context.Context, claimID domain.ClaimID) (bool, error)
}

// Publisher receives ClaimTransitioned after commit. It must not block.
type Publisher interface {
	Publish(ctx context.Context, event models.ClaimTransitioned) bool
}

// SnapshotInvalidator drops cached dashboard snapshots after a committed
// write.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	store     Store
	triage    Triage
	publisher Publisher
	snapshots SnapshotInvalidator
	txTimeout time.Duration

	logger  *slog.Logger
	audit   *audit.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditLogger(a *audit.Logger) Option {
	return func(s *Service) {
		s.audit = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithSnapshotInvalidator(inv SnapshotInvalidator) Option {
	return func(s *Service) {
		s.snapshots = inv
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithTxTimeout bounds a transition when the caller sets no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

func New(st Store, triage Triage, opts ...Option) *Service {
	s := &Service{
		store:     st,
		triage:    triage,
		txTimeout: defaultTxTimeout,
		tracer:    otel.Tracer("claimtriage/claims"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// translateStoreErr maps sentinel storage facts onto domain errors. Errors
// that already carry a domain code pass through.
func translateStoreErr(err error, notFound, fallback string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "concurrent modification detected")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, fallback)
	default:
		return dErrors.Wrap(err, dErrors.CodeStorage, fallback)
	}
}

// invalidateSnapshots runs after the write is durable. A failure leaves the
// cached snapshot to expire on its own.
func (s *Service) invalidateSnapshots(ctx context.Context, claimID domain.ClaimID) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate dashboard snapshots",
			"event", "snapshot_invalidate_failed",
			"claim_id", claimID.String(),
			"error", err,
		)
	}
}

func errorCode(err error) string {
	if de, ok := dErrors.As(err); ok {
		return string(de.Code)
	}
	return string(dErrors.CodeInternal)
}
