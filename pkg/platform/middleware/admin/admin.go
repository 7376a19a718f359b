// Package admin guards internal routes used by automated collaborators
// (scoring jobs, payment confirmation). Callers holding the shared token act
// as the system actor.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"claimtriage/pkg/domain"
	request "claimtriage/pkg/platform/middleware/request"
	"claimtriage/pkg/requestcontext"
)

const HeaderAdminToken = "X-Admin-Token"

func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderAdminToken)
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
				return
			}

			ctx := requestcontext.WithActor(r.Context(), domain.SystemActor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
