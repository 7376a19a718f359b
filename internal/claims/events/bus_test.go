package events

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"claimtriage/internal/claims/metrics"
	"claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
)

func newEvent(to models.Status) models.ClaimTransitioned {
	return models.ClaimTransitioned{
		ClaimID:    domain.NewClaimID(),
		OwnerID:    "owner-1",
		FromStatus: models.StatusSubmitted,
		ToStatus:   to,
		Actor:      domain.SystemActor,
		OccurredAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := New(WithWorkers(2))
	var a, b atomic.Int32
	bus.Subscribe(SubscriberFunc{SubscriberName: "a", Fn: func(context.Context, models.ClaimTransitioned) error {
		a.Add(1)
		return nil
	}})
	bus.Subscribe(SubscriberFunc{SubscriberName: "b", Fn: func(context.Context, models.ClaimTransitioned) error {
		b.Add(1)
		return nil
	}})
	bus.Start()

	for range 10 {
		require.True(t, bus.Publish(context.Background(), newEvent(models.StatusUnderReview)))
	}
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, int32(10), a.Load())
	assert.Equal(t, int32(10), b.Load())
}

func TestBus_FailingSubscriberDoesNotAffectOthers(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	bus := New(WithMetrics(m))
	var ok atomic.Int32
	bus.Subscribe(SubscriberFunc{SubscriberName: "broken", Fn: func(context.Context, models.ClaimTransitioned) error {
		return errors.New("smtp down")
	}})
	bus.Subscribe(SubscriberFunc{SubscriberName: "panicky", Fn: func(context.Context, models.ClaimTransitioned) error {
		panic("nil map")
	}})
	bus.Subscribe(SubscriberFunc{SubscriberName: "healthy", Fn: func(context.Context, models.ClaimTransitioned) error {
		ok.Add(1)
		return nil
	}})
	bus.Start()

	bus.Publish(context.Background(), newEvent(models.StatusApproved))
	require.NoError(t, bus.Close(context.Background()))

	assert.Equal(t, int32(1), ok.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(m.SubscriberErrors.WithLabelValues("broken")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SubscriberErrors.WithLabelValues("panicky")), 0)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	bus := New(WithBufferSize(1), WithWorkers(1), WithMetrics(m))

	release := make(chan struct{})
	var once sync.Once
	bus.Subscribe(SubscriberFunc{SubscriberName: "slow", Fn: func(context.Context, models.ClaimTransitioned) error {
		<-release
		return nil
	}})
	bus.Start()

	done := make(chan struct{})
	go func() {
		for range 20 {
			bus.Publish(context.Background(), newEvent(models.StatusPaid))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	once.Do(func() { close(release) })
	require.NoError(t, bus.Close(context.Background()))

	assert.Positive(t, testutil.ToFloat64(m.EventsDropped))
}

func TestBus_PublishAfterClose(t *testing.T) {
	bus := New()
	bus.Start()
	require.NoError(t, bus.Close(context.Background()))
	assert.False(t, bus.Publish(context.Background(), newEvent(models.StatusPaid)))
	require.NoError(t, bus.Close(context.Background()), "second close is a no-op")
}

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func TestKafkaRelay(t *testing.T) {
	p := &fakeProducer{}
	relay := NewKafkaRelay(p, "claims.transitioned")
	ev := newEvent(models.StatusUnderReview)

	require.NoError(t, relay.HandleClaimTransitioned(context.Background(), ev))
	require.Len(t, p.records, 1)
	rec := p.records[0]
	assert.Equal(t, "claims.transitioned", rec.Topic)
	assert.Equal(t, ev.ClaimID.String(), string(rec.Key))
	assert.Contains(t, string(rec.Value), `"to_status":"under_review"`)

	p.err = errors.New("broker unavailable")
	assert.Error(t, relay.HandleClaimTransitioned(context.Background(), ev))
}
