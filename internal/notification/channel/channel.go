// Package channel delivers composed notifications to an external sink.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
)

// Message is a composed, user-facing notification.
type Message struct {
	ClaimID     domain.ClaimID     `json:"claim_id"`
	ToStatus    claimmodels.Status `json:"to_status"`
	Destination string             `json:"destination"`
	Subject     string             `json:"subject"`
	Body        string             `json:"body"`
}

// Channel is the opaque delivery collaborator. Deliver must honour ctx.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

// LogChannel writes messages to a logger. It never fails.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Deliver(ctx context.Context, msg Message) error {
	c.logger.InfoContext(ctx, "notification delivered",
		"event", "notification_delivered",
		"channel", c.Name(),
		"claim_id", msg.ClaimID.String(),
		"to_status", string(msg.ToStatus),
		"destination", msg.Destination,
		"subject", msg.Subject,
	)
	return nil
}

// WebhookChannel POSTs the message as JSON. Any non-2xx response is a
// delivery failure.
type WebhookChannel struct {
	url    string
	client *http.Client
}

func NewWebhookChannel(url string, client *http.Client) *WebhookChannel {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookChannel{url: url, client: client}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.ClaimID.String()+":"+string(msg.ToStatus))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
