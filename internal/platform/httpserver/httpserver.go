package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// Option adjusts the server built by New.
type Option func(*http.Server)

// WithErrorLogger routes net/http's internal errors (TLS handshakes, panics
// in handlers without recovery) through logger at warn level.
func WithErrorLogger(logger *slog.Logger) Option {
	return func(s *http.Server) {
		if logger != nil {
			s.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
		}
	}
}

// WithWriteTimeout overrides the response deadline. Dashboard snapshots
// over large stores may need more than the default.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d
		}
	}
}

// New builds an HTTP server with the timeouts used by every listener.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}
