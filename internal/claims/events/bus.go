// Package events carries ClaimTransitioned from the transition authority to
// its side-effect subscribers on a bounded in-process queue. Publishing never
// blocks: when the queue is full the event is dropped and counted.
package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"claimtriage/internal/claims/metrics"
	"claimtriage/internal/claims/models"
)

// Subscriber reacts to committed transitions. Errors are logged and counted;
// they never reach the publisher.
type Subscriber interface {
	Name() string
	HandleClaimTransitioned(ctx context.Context, event models.ClaimTransitioned) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc struct {
	SubscriberName string
	Fn             func(ctx context.Context, event models.ClaimTransitioned) error
}

func (f SubscriberFunc) Name() string { return f.SubscriberName }

func (f SubscriberFunc) HandleClaimTransitioned(ctx context.Context, event models.ClaimTransitioned) error {
	return f.Fn(ctx, event)
}

// Bus fans each published event out to every subscriber on worker goroutines.
type Bus struct {
	mu      sync.RWMutex
	subs    []Subscriber
	queue   chan models.ClaimTransitioned
	closed  bool
	started bool

	workers        int
	handlerTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics.Metrics
	wg             sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

func WithBufferSize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.queue = make(chan models.ClaimTransitioned, size)
		}
	}
}

func WithWorkers(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithHandlerTimeout bounds each subscriber call.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.handlerTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		queue:          make(chan models.ClaimTransitioned, 256),
		workers:        2,
		handlerTimeout: 10 * time.Second,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers s for every future event.
func (b *Bus) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, s)
}

// Start launches the workers. Calling it twice is a no-op.
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true
	for range b.workers {
		b.wg.Add(1)
		go b.run()
	}
}

// Publish enqueues event without blocking. It reports whether the event was
// accepted.
func (b *Bus) Publish(ctx context.Context, event models.ClaimTransitioned) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.drop(ctx, event, "bus closed")
		return false
	}
	select {
	case b.queue <- event:
		b.metrics.IncEventPublished()
		return true
	default:
		b.drop(ctx, event, "queue full")
		return false
	}
}

func (b *Bus) drop(ctx context.Context, event models.ClaimTransitioned, reason string) {
	b.metrics.IncEventDropped()
	b.logger.WarnContext(ctx, "claim event dropped",
		"event", "claim_event_dropped",
		"claim_id", event.ClaimID.String(),
		"to_status", string(event.ToStatus),
		"reason", reason,
	)
}

// Close stops accepting events and waits for queued ones to drain or ctx to end.
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.queue)
	started := b.started
	b.mu.Unlock()

	if !started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bus) run() {
	defer b.wg.Done()
	for event := range b.queue {
		b.mu.RLock()
		subs := append([]Subscriber(nil), b.subs...)
		b.mu.RUnlock()
		for _, s := range subs {
			b.deliver(s, event)
		}
	}
}

func (b *Bus) deliver(s Subscriber, event models.ClaimTransitioned) {
	ctx, cancel := context.WithTimeout(context.Background(), b.handlerTimeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("subscriber panic: %v", r)
			}
		}()
		return s.HandleClaimTransitioned(ctx, event)
	}()
	if err != nil {
		b.metrics.IncSubscriberError(s.Name())
		b.logger.ErrorContext(ctx, "claim event subscriber failed",
			"event", "claim_event_subscriber_failed",
			"subscriber", s.Name(),
			"claim_id", event.ClaimID.String(),
			"to_status", string(event.ToStatus),
			"request_id", event.RequestID,
			"error", err,
		)
	}
}
