package testutil

import (
	"context"
	"net/http"
	"time"

	"claimtriage/pkg/domain"
	"claimtriage/pkg/requestcontext"
)

// WithActor attaches an actor to the request context, simulating the auth
// middleware for handler tests.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// AsOwner, AsAdmin and AsSystem are shorthands for WithActor.
func AsOwner(req *http.Request, ownerID string) *http.Request {
	return WithActor(req, domain.OwnerActor(ownerID))
}

func AsAdmin(req *http.Request, adminID string) *http.Request {
	return WithActor(req, domain.AdminActor(adminID))
}

func AsSystem(req *http.Request) *http.Request {
	return WithActor(req, domain.SystemActor)
}

// FixedTime returns a context pinned to t.
func FixedTime(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
