// Package dispatcher turns ClaimTransitioned events into user notifications.
// Delivery is best effort: one attempt per event, no retries, and failures
// end up in the attempt log and the logs rather than with the caller.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/internal/notification/channel"
	"claimtriage/internal/notification/metrics"
	"claimtriage/internal/notification/models"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/email"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/platform/circuit"
)

const (
	defaultAttemptTimeout = 3 * time.Second
	defaultProbeInterval  = 30 * time.Second
)

// AttemptStore records delivery attempts.
type AttemptStore interface {
	Record(ctx context.Context, attempt *models.Attempt) error
}

type Dispatcher struct {
	channel  channel.Channel
	attempts AttemptStore
	breaker  *circuit.Breaker
	domain   string

	attemptTimeout time.Duration
	probeInterval  time.Duration
	now            func() time.Time

	mu        sync.Mutex
	lastProbe time.Time

	logger  *slog.Logger
	audit   *audit.Logger
	metrics *metrics.Metrics
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithAuditLogger(a *audit.Logger) Option {
	return func(d *Dispatcher) {
		d.audit = a
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithAttemptTimeout bounds a single delivery.
func WithAttemptTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.attemptTimeout = t
		}
	}
}

// WithBreaker guards the channel. While open, attempts are recorded as
// failed without calling the channel, except for one probe per interval.
func WithBreaker(b *circuit.Breaker, probeInterval time.Duration) Option {
	return func(d *Dispatcher) {
		d.breaker = b
		if probeInterval > 0 {
			d.probeInterval = probeInterval
		}
	}
}

// WithAddressDomain sets the domain appended to owner ids that are not
// already email addresses.
func WithAddressDomain(domain string) Option {
	return func(d *Dispatcher) {
		d.domain = domain
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(ch channel.Channel, attempts AttemptStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		channel:        ch,
		attempts:       attempts,
		domain:         "claims.invalid",
		attemptTimeout: defaultAttemptTimeout,
		probeInterval:  defaultProbeInterval,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Name() string { return "notification" }

// HandleClaimTransitioned notifies the owner. It always returns nil.
func (d *Dispatcher) HandleClaimTransitioned(ctx context.Context, event claimmodels.ClaimTransitioned) error {
	d.Notify(ctx, event)
	return nil
}

// Notify makes one delivery attempt for event and records it.
func (d *Dispatcher) Notify(ctx context.Context, event claimmodels.ClaimTransitioned) *models.Attempt {
	now := d.now().UTC()
	msg := Compose(event, email.Address(event.OwnerID, d.domain))
	attempt := &models.Attempt{
		ID:          models.NewAttemptID(now),
		ClaimID:     event.ClaimID,
		ToStatus:    event.ToStatus,
		Destination: msg.Destination,
		AttemptedAt: now,
	}

	outcome := "delivered"
	switch {
	case msg.Destination == "":
		outcome = "failed"
		attempt.ErrorDetail = "no destination for owner"
	case !d.allow(now):
		outcome = "circuit_open"
		attempt.ErrorDetail = "delivery circuit open for channel " + d.channel.Name()
	default:
		if err := d.deliver(ctx, msg); err != nil {
			outcome = "failed"
			attempt.ErrorDetail = err.Error()
			d.recordFailure(ctx)
		} else {
			attempt.Succeeded = true
			d.recordSuccess(ctx)
		}
	}
	d.metrics.IncAttempt(d.channel.Name(), outcome)

	if err := d.attempts.Record(ctx, attempt); err != nil {
		d.logger.ErrorContext(ctx, "failed to record notification attempt",
			"event", "notification_attempt_record_failed",
			"claim_id", event.ClaimID.String(),
			"attempt_id", attempt.ID,
			"error", err,
		)
	}
	if !attempt.Succeeded {
		nerr := dErrors.New(dErrors.CodeNotification, attempt.ErrorDetail)
		d.logger.WarnContext(ctx, "notification delivery failed",
			"event", "notification_failed",
			"claim_id", event.ClaimID.String(),
			"to_status", string(event.ToStatus),
			"destination", attempt.Destination,
			"attempt_id", attempt.ID,
			"request_id", event.RequestID,
			"error_detail", attempt.ErrorDetail,
			"error", nerr,
		)
		d.audit.Log(ctx, audit.EventNotificationFailed,
			"claim_id", event.ClaimID.String(),
			"reason", attempt.ErrorDetail,
		)
	}
	return attempt
}

func (d *Dispatcher) deliver(ctx context.Context, msg channel.Message) (err error) {
	ctx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("channel panic: %v", r)
		}
	}()
	return d.channel.Deliver(ctx, msg)
}

// allow reports whether the channel may be called: always while the breaker
// is closed, and once per probe interval while it is open.
func (d *Dispatcher) allow(now time.Time) bool {
	if d.breaker == nil || !d.breaker.IsOpen() {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if now.Sub(d.lastProbe) < d.probeInterval {
		return false
	}
	d.lastProbe = now
	return true
}

func (d *Dispatcher) recordFailure(ctx context.Context) {
	if d.breaker == nil {
		return
	}
	_, change := d.breaker.RecordFailure()
	if change.Opened {
		d.mu.Lock()
		d.lastProbe = d.now().UTC()
		d.mu.Unlock()
		d.metrics.SetCircuitOpen(d.channel.Name(), true)
		d.logger.WarnContext(ctx, "notification circuit opened",
			"event", "notification_circuit_opened",
			"channel", d.channel.Name(),
		)
	}
}

func (d *Dispatcher) recordSuccess(ctx context.Context) {
	if d.breaker == nil {
		return
	}
	_, change := d.breaker.RecordSuccess()
	if change.Closed {
		d.metrics.SetCircuitOpen(d.channel.Name(), false)
		d.logger.InfoContext(ctx, "notification circuit closed",
			"event", "notification_circuit_closed",
			"channel", d.channel.Name(),
		)
	}
}

var statusPhrases = map[claimmodels.Status]string{
	claimmodels.StatusDraft:       "has been saved as a draft",
	claimmodels.StatusSubmitted:   "has been submitted",
	claimmodels.StatusUnderReview: "is now under review",
	claimmodels.StatusApproved:    "has been approved",
	claimmodels.StatusRejected:    "has been rejected",
	claimmodels.StatusPaid:        "has been paid",
}

// Compose builds the owner-facing message for a transition.
func Compose(event claimmodels.ClaimTransitioned, destination string) channel.Message {
	phrase, ok := statusPhrases[event.ToStatus]
	if !ok {
		phrase = "changed status to " + string(event.ToStatus)
	}
	short := event.ClaimID.String()
	if len(short) > 8 {
		short = short[:8]
	}
	var body strings.Builder
	if destination != "" {
		body.WriteString(email.Greeting(destination))
		body.WriteString("\n\n")
	}
	fmt.Fprintf(&body, "Your claim %s %s.", event.ClaimID, phrase)
	return channel.Message{
		ClaimID:     event.ClaimID,
		ToStatus:    event.ToStatus,
		Destination: destination,
		Subject:     fmt.Sprintf("Claim %s %s", short, phrase),
		Body:        body.String(),
	}
}
