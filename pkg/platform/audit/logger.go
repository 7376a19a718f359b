package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"claimtriage/pkg/requestcontext"
)

// Sink receives audit events after they are logged.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes audit lines through slog and forwards them to an optional
// sink. A nil *Logger is a no-op.
type Logger struct {
	logger *slog.Logger
	sink   Sink
}

func NewLogger(logger *slog.Logger, sink Sink) *Logger {
	return &Logger{logger: logger, sink: sink}
}

// Log records event. Attributes are slog key/value pairs; "claim_id" (or
// "flag_id"), "actor", "decision" and "reason" also populate the sink event.
func (l *Logger) Log(ctx context.Context, event AuditEvent, attributes ...any) {
	if l == nil {
		return
	}
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if l.logger != nil {
		args := append(attributes, "event", string(event), "log_type", "audit", "category", string(event.Category()))
		l.logger.InfoContext(ctx, string(event), args...)
	}
	if l.sink == nil {
		return
	}
	subject := attrValue(attributes, "claim_id")
	if subject == "" {
		subject = attrValue(attributes, "flag_id")
	}
	_ = l.sink.Emit(ctx, Event{
		Category:  event.Category(),
		Timestamp: time.Now().UTC(),
		Action:    event,
		Subject:   subject,
		ActorID:   attrValue(attributes, "actor"),
		RequestID: requestID,
		Decision:  attrValue(attributes, "decision"),
		Reason:    attrValue(attributes, "reason"),
	})
}

// attrValue finds key in a slog-style key/value list. Stringers such as
// typed ids are rendered; other values are ignored.
func attrValue(attributes []any, key string) string {
	for i := 0; i+1 < len(attributes); i += 2 {
		if k, ok := attributes[i].(string); !ok || k != key {
			continue
		}
		switch v := attributes[i+1].(type) {
		case string:
			return v
		case fmt.Stringer:
			return v.String()
		}
		return ""
	}
	return ""
}

// Recorder is an in-memory Sink.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Actions lists recorded actions in order.
func (r *Recorder) Actions() []AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AuditEvent, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}
