// Package middleware limits API traffic per caller. Authenticated requests
// are keyed by actor, anonymous ones by client IP.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"claimtriage/internal/ratelimit/metrics"
	"claimtriage/internal/ratelimit/models"
	"claimtriage/pkg/platform/httputil"
	request "claimtriage/pkg/platform/middleware/request"
	"claimtriage/pkg/requestcontext"
)

// BucketStore is a sliding window counter.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	store    BucketStore
	policies map[models.EndpointClass]models.Policy
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the limiter into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(met *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = met
	}
}

// WithPolicy overrides the allowance for class.
func WithPolicy(class models.EndpointClass, p models.Policy) Option {
	return func(m *Middleware) {
		if p.Limit > 0 && p.Window > 0 {
			m.policies[class] = p
		}
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store: store,
		policies: map[models.EndpointClass]models.Policy{
			models.ClassWrite: {Limit: 30, Window: time.Minute},
			models.ClassRead:  {Limit: 300, Window: time.Minute},
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Handler classifies by method: GET and HEAD are reads, everything else
// is a write.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		class := models.ClassWrite
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			class = models.ClassRead
		}
		policy := m.policies[class]

		caller := "ip:" + request.ClientIPFromRequest(r)
		if actor, ok := requestcontext.Actor(ctx); ok {
			caller = "actor:" + actor.String()
		}

		result, err := m.store.Allow(ctx, models.Key(class, caller), policy.Limit, policy.Window)
		if err != nil {
			m.metrics.IncStoreError()
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"request_id", request.GetRequestID(ctx),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		m.metrics.IncDecision(string(class), result.Allowed)
		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", request.GetRequestID(ctx),
				"class", string(class),
				"caller", caller,
			)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
