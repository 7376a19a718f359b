// Package service runs fraud triage: it gathers a claim's surroundings,
// applies the rules, persists resulting flags and handles their resolution.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/fraud/metrics"
	"claimtriage/internal/fraud/models"
	"claimtriage/internal/fraud/rules"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/platform/keylock"
	"claimtriage/pkg/platform/sentinel"
	"claimtriage/pkg/requestcontext"
)

const defaultTimeout = 5 * time.Second

// ClaimReader is the read side of the claim store.
type ClaimReader interface {
	FindByID(ctx context.Context, id domain.ClaimID) (*claimmodels.Claim, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*claimmodels.Claim, error)
	ListAll(ctx context.Context, filter claimmodels.Filter) ([]*claimmodels.Claim, error)
}

type FlagStore interface {
	Save(ctx context.Context, flags []*models.Flag) error
	FindByID(ctx context.Context, id domain.FlagID) (*models.Flag, error)
	ListByClaim(ctx context.Context, claimID domain.ClaimID) ([]*models.Flag, error)
	ListUnresolved(ctx context.Context) ([]*models.Flag, error)
	Resolve(ctx context.Context, id domain.FlagID, actor domain.Actor, at time.Time) (*models.Flag, error)
}

// SnapshotInvalidator drops cached dashboard snapshots after flags change.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service evaluates claims and manages their flags. Flags are advisory: no
// method here touches claim status.
type Service struct {
	claims  ClaimReader
	flags   FlagStore
	rules   rules.Config
	locks   *keylock.Locker[domain.ClaimID]
	timeout time.Duration

	snapshots SnapshotInvalidator

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

func WithRules(cfg rules.Config) Option {
	return func(s *Service) {
		s.rules = cfg
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

// WithTimeout bounds Evaluate when the caller sets no deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(claims ClaimReader, flags FlagStore, opts ...Option) *Service {
	s := &Service{
		claims:  claims,
		flags:   flags,
		rules:   rules.DefaultConfig(),
		locks:   keylock.New[domain.ClaimID](),
		timeout: defaultTimeout,
		tracer:  otel.Tracer("claimtriage/fraud"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Evaluate loads the claim and triages it.
func (s *Service) Evaluate(ctx context.Context, claimID domain.ClaimID) ([]*models.Flag, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, translate(err, "claim not found", "failed to load claim")
	}
	return s.EvaluateClaim(ctx, claim)
}

// EvaluateClaim runs the rules against claim and persists new flags before
// returning. A rule that fires while an unresolved flag of the same type is
// already open returns that flag instead of raising another, so repeated
// evaluation is idempotent.
func (s *Service) EvaluateClaim(ctx context.Context, claim *claimmodels.Claim) ([]*models.Flag, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveEvaluateLatency(time.Since(start))
	}()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "fraud.Evaluate", trace.WithAttributes(
		attribute.String("claim.id", claim.ID.String()),
		attribute.String("claim.type", string(claim.ClaimType)),
	))
	defer span.End()

	unlock, err := s.locks.Lock(ctx, claim.ID)
	if err != nil {
		span.SetStatus(codes.Error, "lock timeout")
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for triage lock")
	}
	defer unlock()

	evidence, err := s.gatherEvidence(ctx, claim)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evidence")
		return nil, err
	}

	findings := rules.Evaluate(claim, evidence.Rules, s.rules)
	now := requestcontext.Now(ctx)

	result := make([]*models.Flag, 0, len(findings))
	var fresh []*models.Flag
	for _, f := range findings {
		if open := findOpen(evidence.Existing, f.FlagType); open != nil {
			result = append(result, open)
			continue
		}
		flag := models.NewFlag(claim.ID, f, now)
		fresh = append(fresh, flag)
		result = append(result, flag)
	}

	if len(fresh) > 0 {
		if err := s.flags.Save(ctx, fresh); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "save flags")
			return nil, translate(err, "claim not found", "failed to persist fraud flags")
		}
		s.invalidateSnapshots(ctx, claim.ID)
	}
	for _, f := range fresh {
		s.metrics.IncFlagRaised(string(f.FlagType), string(f.Severity))
		s.audit.Log(ctx, audit.EventFraudFlagRaised,
			"claim_id", claim.ID.String(),
			"flag_id", f.ID.String(),
			"flag_type", string(f.FlagType),
			"severity", string(f.Severity),
		)
	}
	span.SetAttributes(attribute.Int("fraud.flags", len(result)), attribute.Int("fraud.flags_new", len(fresh)))
	return result, nil
}

// Resolve marks a flag resolved by actor. It never changes claim status.
func (s *Service) Resolve(ctx context.Context, flagID domain.FlagID, actor domain.Actor) (*models.Flag, error) {
	if err := actor.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid actor")
	}
	if actor.Role == domain.RoleOwner {
		return nil, dErrors.New(dErrors.CodeForbidden, "owners cannot resolve fraud flags")
	}
	flag, err := s.flags.Resolve(ctx, flagID, actor, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeAlreadyResolved, "fraud flag "+flagID.String()+" is already resolved")
		}
		return nil, translate(err, "fraud flag not found", "failed to resolve fraud flag")
	}
	s.invalidateSnapshots(ctx, flag.ClaimID)
	s.metrics.IncFlagResolved(string(flag.Severity), string(actor.Role))
	s.audit.Log(ctx, audit.EventFraudFlagResolved,
		"claim_id", flag.ClaimID.String(),
		"flag_id", flag.ID.String(),
		"actor", actor.String(),
		"decision", "resolved",
	)
	return flag, nil
}

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

// ListFlags returns a claim's flags, oldest first.
func (s *Service) ListFlags(ctx context.Context, claimID domain.ClaimID) ([]*models.Flag, error) {
	if _, err := s.claims.FindByID(ctx, claimID); err != nil {
		return nil, translate(err, "claim not found", "failed to load claim")
	}
	flags, err := s.flags.ListByClaim(ctx, claimID)
	if err != nil {
		return nil, translate(err, "claim not found", "failed to list fraud flags")
	}
	return flags, nil
}

// HasUnresolvedHigh reports whether the claim has an open high-severity flag.
func (s *Service) HasUnresolvedHigh(ctx context.Context, claimID domain.ClaimID) (bool, error) {
	flags, err := s.flags.ListByClaim(ctx, claimID)
	if err != nil {
		return false, translate(err, "claim not found", "failed to list fraud flags")
	}
	for _, f := range flags {
		if f.IsOpenHigh() {
			return true, nil
		}
	}
	return false, nil
}

func findOpen(existing []*models.Flag, t models.FlagType) *models.Flag {
	for _, f := range existing {
		if f.FlagType == t && !f.Resolved {
			return f
		}
	}
	return nil
}

func translate(err error, notFound, fallback string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFound)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, fallback)
	default:
		return dErrors.Wrap(err, dErrors.CodeStorage, fallback)
	}
}
