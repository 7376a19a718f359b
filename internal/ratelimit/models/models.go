// Package models holds the rate limit value types shared by the stores and
// the HTTP middleware.
package models

import "time"

// EndpointClass groups routes that share a limit.
type EndpointClass string

const (
	// ClassWrite covers claim creation, transitions and flag resolution.
	ClassWrite EndpointClass = "write"
	ClassRead  EndpointClass = "read"
)

// Policy is a sliding window allowance.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// RetryAfter is in seconds and only set when not allowed.
	RetryAfter int `json:"retry_after,omitempty"`
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// Key builds the bucket key for a caller and class.
func Key(class EndpointClass, caller string) string {
	return "rl:" + string(class) + ":" + caller
}
