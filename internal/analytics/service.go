// Package analytics computes read-only dashboard aggregates over claims and
// fraud flags. Snapshots scan the stores at call time and take no claim
// locks, so they neither block nor wait on transitions.
package analytics

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	claimmodels "claimtriage/internal/claims/models"
	fraudmodels "claimtriage/internal/fraud/models"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/requestcontext"
)

type ClaimLister interface {
	ListAll(ctx context.Context, filter claimmodels.Filter) ([]*claimmodels.Claim, error)
}

type FlagLister interface {
	ListUnresolved(ctx context.Context) ([]*fraudmodels.Flag, error)
}

// Cache stores rendered snapshots. Get returns nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*Report, error)
	Set(ctx context.Context, key string, report *Report) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	claims ClaimLister
	flags  FlagLister
	cache  Cache
	group  singleflight.Group

	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache enables CachedSnapshot reuse across calls.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(claims ClaimLister, flags FlagLister, opts ...Option) *Service {
	s := &Service{
		claims: claims,
		flags:  flags,
		logger: slog.Default(),
		tracer: otel.Tracer("claimtriage/analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DashboardSnapshot scans the stores now and aggregates the result.
func (s *Service) DashboardSnapshot(ctx context.Context, filter claimmodels.Filter) (*Report, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "analytics.DashboardSnapshot")
	defer span.End()

	var (
		claims []*claimmodels.Claim
		flags  []*fraudmodels.Flag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		claims, err = s.claims.ListAll(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		flags, err = s.flags.ListUnresolved(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan")
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorage, "failed to scan claims for analytics")
	}

	report := Build(claims, flags, requestcontext.Now(ctx))
	span.SetAttributes(attribute.Int("analytics.claims", report.TotalClaims))
	return report, nil
}

// CachedSnapshot serves a recent snapshot for filter when one is cached and
// otherwise computes one, collapsing concurrent identical requests into a
// single scan. Claim and flag writes invalidate the cache once committed. A
// scan that overlaps a write can still store the pre-write view, which lives
// until the next write or the TTL.
func (s *Service) CachedSnapshot(ctx context.Context, filter claimmodels.Filter) (*Report, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	key := FilterKey(filter)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "analytics cache read failed",
				"event", "analytics_cache_error",
				"key", key,
				"error", err,
			)
		}
		if cached != nil {
			return cached, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		report, err := s.DashboardSnapshot(ctx, filter)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, report); err != nil {
				s.logger.WarnContext(ctx, "analytics cache write failed",
					"event", "analytics_cache_error",
					"key", key,
					"error", err,
				)
			}
		}
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Report), nil
}

// FilterKey renders filter canonically so equal filters share a cache entry.
func FilterKey(f claimmodels.Filter) string {
	part := func(name string, values []string) string {
		values = slices.Clone(values)
		slices.Sort(values)
		return name + "=" + strings.Join(values, ",")
	}
	stamp := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return strings.Join([]string{
		part("status", toStrings(f.Statuses)),
		part("type", toStrings(f.ClaimTypes)),
		part("insurance", toStrings(f.InsuranceTypes)),
		"owner=" + f.OwnerID,
		"from=" + stamp(f.CreatedFrom),
		"to=" + stamp(f.CreatedTo),
	}, ";")
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}
