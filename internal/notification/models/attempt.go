// Package models holds the notification attempt log entry.
package models

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	claimmodels "claimtriage/internal/claims/models"
	"claimtriage/pkg/domain"
)

// Attempt records one delivery try. It is written whether or not delivery
// succeeded; ErrorDetail is empty on success.
type Attempt struct {
	ID          string             `json:"id"`
	ClaimID     domain.ClaimID     `json:"claim_id"`
	ToStatus    claimmodels.Status `json:"to_status"`
	Destination string             `json:"destination"`
	AttemptedAt time.Time          `json:"attempted_at"`
	Succeeded   bool               `json:"succeeded"`
	ErrorDetail string             `json:"error_detail,omitempty"`
}

// NewAttemptID returns a time-sortable id stamped at t.
func NewAttemptID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
