// Package handler exposes the claim lifecycle, fraud triage and dashboard
// operations over HTTP. Routes expect the actor middleware to have run.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"claimtriage/internal/analytics"
	"claimtriage/internal/claims/models"
	"claimtriage/internal/claims/service"
	fraudmodels "claimtriage/internal/fraud/models"
	notificationmodels "claimtriage/internal/notification/models"
	"claimtriage/pkg/domain"
	dErrors "claimtriage/pkg/domain-errors"
	"claimtriage/pkg/platform/httputil"
	"claimtriage/pkg/platform/middleware/auth"
	"claimtriage/pkg/requestcontext"
)

type ClaimService interface {
	CreateClaim(ctx context.Context, draft models.ClaimDraft, actor domain.Actor) (*service.CreateResult, error)
	Transition(ctx context.Context, claimID domain.ClaimID, to models.Status, actor domain.Actor, notes string) (*models.Claim, error)
	GetClaim(ctx context.Context, id domain.ClaimID) (*models.Claim, error)
	ListClaims(ctx context.Context, ownerID string) ([]*models.Claim, error)
	ListAllClaims(ctx context.Context, filter models.Filter) ([]*models.Claim, error)
	ClaimHistory(ctx context.Context, id domain.ClaimID) ([]*models.TrackingEvent, error)
}

type FraudService interface {
	Evaluate(ctx context.Context, claimID domain.ClaimID) ([]*fraudmodels.Flag, error)
	Resolve(ctx context.Context, flagID domain.FlagID, actor domain.Actor) (*fraudmodels.Flag, error)
	ListFlags(ctx context.Context, claimID domain.ClaimID) ([]*fraudmodels.Flag, error)
}

type DashboardService interface {
	DashboardSnapshot(ctx context.Context, filter models.Filter) (*analytics.Report, error)
	CachedSnapshot(ctx context.Context, filter models.Filter) (*analytics.Report, error)
}

// AttemptLister reads the notification attempt log.
type AttemptLister interface {
	ListByClaim(ctx context.Context, claimID domain.ClaimID) ([]*notificationmodels.Attempt, error)
}

// Handler wires claim endpoints to the engine services.
type Handler struct {
	claims    ClaimService
	fraud     FraudService
	dashboard DashboardService
	attempts  AttemptLister
	logger    *slog.Logger
}

// New constructs a claims handler. dashboard and attempts may be nil, in
// which case their routes are not mounted.
func New(claims ClaimService, fraud FraudService, dashboard DashboardService, attempts AttemptLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		claims:    claims,
		fraud:     fraud,
		dashboard: dashboard,
		attempts:  attempts,
		logger:    logger,
	}
}

// Register mounts owner and admin routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/claims", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleListMine)
		r.Get("/{claimID}", h.HandleGet)
		r.Get("/{claimID}/history", h.HandleHistory)
		r.Post("/{claimID}/transitions", h.HandleTransition)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireRole(h.logger, domain.RoleAdmin))
		r.Get("/claims", h.HandleListAll)
		r.Get("/claims/{claimID}/fraud-flags", h.HandleListFlags)
		r.Post("/claims/{claimID}/fraud-evaluations", h.HandleEvaluate)
		r.Post("/fraud-flags/{flagID}/resolve", h.HandleResolveFlag)
		if h.attempts != nil {
			r.Get("/claims/{claimID}/notifications", h.HandleListAttempts)
		}
		if h.dashboard != nil {
			r.Get("/dashboard", h.HandleDashboard)
		}
	})
}

// RegisterInternal mounts the routes automated collaborators call as the
// system actor. The caller guards them with the admin token middleware.
func (h *Handler) RegisterInternal(r chi.Router) {
	r.Post("/internal/claims/{claimID}/transitions", h.HandleTransition)
	r.Post("/internal/claims/{claimID}/fraud-evaluations", h.HandleEvaluate)
	r.Post("/internal/fraud-flags/{flagID}/resolve", h.HandleResolveFlag)
}

// HandleCreate handles POST /claims.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.claims.CreateClaim(ctx, req.Draft(), actor)
	if err != nil {
		h.logFailure(ctx, "claim creation failed", err, "actor", actor.String())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim created",
		"request_id", requestID,
		"claim_id", result.Claim.ID.String(),
		"flags", len(result.Flags),
	)
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleTransition handles POST /claims/{claimID}/transitions and its
// internal counterpart. Another owner's claim is reported as not found, the
// same as on reads.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.claimIDParam(w, r)
	if !ok {
		return
	}
	if actor.Role == domain.RoleOwner {
		if _, ok := h.visibleClaim(w, r, claimID, actor); !ok {
			return
		}
	}

	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.claims.Transition(ctx, claimID, req.ParsedStatus(), actor, req.Notes)
	if err != nil {
		h.logFailure(ctx, "claim transition failed", err,
			"claim_id", claimID.String(),
			"to_status", req.ToStatus,
			"actor", actor.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleGet handles GET /claims/{claimID}. Owners only see their own claims;
// anything else is reported as not found.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.claimIDParam(w, r)
	if !ok {
		return
	}
	claim, ok := h.visibleClaim(w, r, claimID, actor)
	if !ok {
		return
	}
	h.logger.DebugContext(ctx, "claim read", "claim_id", claimID.String())
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleHistory handles GET /claims/{claimID}/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.claimIDParam(w, r)
	if !ok {
		return
	}
	claim, ok := h.visibleClaim(w, r, claimID, actor)
	if !ok {
		return
	}
	events, err := h.claims.ClaimHistory(ctx, claimID)
	if err != nil {
		h.logFailure(ctx, "claim history failed", err, "claim_id", claimID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTimeline(claim, events, actor.Role))
}

// HandleListMine handles GET /claims for the calling owner.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	claims, err := h.claims.ListClaims(ctx, actor.ID)
	if err != nil {
		h.logFailure(ctx, "claim listing failed", err, "actor", actor.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClaimList{Claims: claims, Count: len(claims)})
}

// HandleListAll handles GET /admin/claims with optional filters.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claims, err := h.claims.ListAllClaims(ctx, filter)
	if err != nil {
		h.logFailure(ctx, "admin claim listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ClaimList{Claims: claims, Count: len(claims)})
}

// HandleListFlags handles GET /admin/claims/{claimID}/fraud-flags.
func (h *Handler) HandleListFlags(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, ok := h.claimIDParam(w, r)
	if !ok {
		return
	}
	flags, err := h.fraud.ListFlags(ctx, claimID)
	if err != nil {
		h.logFailure(ctx, "fraud flag listing failed", err, "claim_id", claimID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FlagList{ClaimID: claimID, Flags: flags})
}

// HandleEvaluate re-runs fraud triage for a claim.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, ok := h.claimIDParam(w, r)
	if !ok {
		return
	}
	flags, err := h.fraud.Evaluate(ctx, claimID)
	if err != nil {
		h.logFailure(ctx, "fraud evaluation failed", err, "claim_id", claimID.String())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FlagList{ClaimID: claimID, Flags: flags})
}

// HandleResolveFlag handles POST /admin/fraud-flags/{flagID}/resolve.
func (h *Handler) HandleResolveFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireActor(w, r)
	if !ok {
		return
	}
	flagID, err := domain.ParseFlagID(chi.URLParam(r, "flagID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	flag, err := h.fraud.Resolve(ctx, flagID, actor)
	if err != nil {
		h.logFailure(ctx, "fraud flag resolution failed", err,
			"flag_id", flagID.String(),
			"actor", actor.String(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, flag)
}

// HandleListAttempts handles GET /admin/claims/{claimID}/notifications.
func (h *Handler) HandleListAttempts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, ok := h.claimIDParam(w, r)
	if !ok {
		return
	}
	attempts, err := h.attempts.ListByClaim(ctx, claimID)
	if err != nil {
		h.logFailure(ctx, "notification attempt listing failed", err, "claim_id", claimID.String())
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeStorage, "failed to read notification attempts"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, AttemptList{ClaimID: claimID, Attempts: attempts})
}

// HandleDashboard handles GET /admin/dashboard. Every call scans the stores.
// cached=true opts into the shared snapshot cache, which writes invalidate.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter, err := ParseFilter(q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var report *analytics.Report
	if q.Get("cached") == "true" {
		report, err = h.dashboard.CachedSnapshot(ctx, filter)
	} else {
		report, err = h.dashboard.DashboardSnapshot(ctx, filter)
	}
	if err != nil {
		h.logFailure(ctx, "dashboard snapshot failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := requestcontext.Actor(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Actor{}, false
	}
	return actor, true
}

func (h *Handler) claimIDParam(w http.ResponseWriter, r *http.Request) (domain.ClaimID, bool) {
	id, err := domain.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		httputil.WriteError(w, err)
		return domain.ClaimID{}, false
	}
	return id, true
}

func (h *Handler) visibleClaim(w http.ResponseWriter, r *http.Request, id domain.ClaimID, actor domain.Actor) (*models.Claim, bool) {
	claim, err := h.claims.GetClaim(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	if actor.Role == domain.RoleOwner && claim.OwnerID != actor.ID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "claim not found"))
		return nil, false
	}
	return claim, true
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
