package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"claimtriage/internal/ratelimit/metrics"
	"claimtriage/internal/ratelimit/models"
	"claimtriage/internal/ratelimit/store/bucket"
	"claimtriage/pkg/domain"
	"claimtriage/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	return nil, errors.New("redis down")
}

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func asActor(r *http.Request, a domain.Actor) *http.Request {
	return r.WithContext(requestcontext.WithActor(r.Context(), a))
}

func TestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("writes limited per actor", func(t *testing.T) {
		met := metrics.NewWithRegisterer(prometheus.NewRegistry())
		m := New(bucket.NewInMemoryBucketStore(), logger,
			WithMetrics(met),
			WithPolicy(models.ClassWrite, models.Policy{Limit: 2, Window: time.Minute}),
		)
		h := m.Handler(ok())

		for range 2 {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, asActor(httptest.NewRequest(http.MethodPost, "/claims", nil), domain.OwnerActor("alice")))
			assert.Equal(t, http.StatusOK, w.Code)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, asActor(httptest.NewRequest(http.MethodPost, "/claims", nil), domain.OwnerActor("alice")))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))

		w = httptest.NewRecorder()
		h.ServeHTTP(w, asActor(httptest.NewRequest(http.MethodPost, "/claims", nil), domain.OwnerActor("bob")))
		assert.Equal(t, http.StatusOK, w.Code, "buckets are per actor")

		w = httptest.NewRecorder()
		h.ServeHTTP(w, asActor(httptest.NewRequest(http.MethodGet, "/claims", nil), domain.OwnerActor("alice")))
		assert.Equal(t, http.StatusOK, w.Code, "reads have their own bucket")

		assert.Equal(t, 1.0, testutil.ToFloat64(met.Decisions.WithLabelValues("write", "limited")))
	})

	t.Run("store failure lets the request through", func(t *testing.T) {
		m := New(failingStore{}, logger)
		w := httptest.NewRecorder()
		m.Handler(ok()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claims", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		m := New(failingStore{}, logger, WithDisabled(true))
		w := httptest.NewRecorder()
		m.Handler(ok()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/claims", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	})
}
