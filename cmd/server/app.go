package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"claimtriage/internal/analytics"
	analyticscache "claimtriage/internal/analytics/cache"
	"claimtriage/internal/claims/events"
	claimshandler "claimtriage/internal/claims/handler"
	claimsmetrics "claimtriage/internal/claims/metrics"
	claimmodels "claimtriage/internal/claims/models"
	claimsservice "claimtriage/internal/claims/service"
	claimstore "claimtriage/internal/claims/store"
	fraudmetrics "claimtriage/internal/fraud/metrics"
	"claimtriage/internal/fraud/rules"
	fraudservice "claimtriage/internal/fraud/service"
	flagstore "claimtriage/internal/fraud/store"
	jwttoken "claimtriage/internal/jwt_token"
	"claimtriage/internal/notification/channel"
	"claimtriage/internal/notification/dispatcher"
	notificationmetrics "claimtriage/internal/notification/metrics"
	attemptstore "claimtriage/internal/notification/store"
	"claimtriage/internal/platform/config"
	"claimtriage/internal/platform/kafka"
	platformmetrics "claimtriage/internal/platform/metrics"
	"claimtriage/internal/platform/postgres"
	platformredis "claimtriage/internal/platform/redis"
	ratelimitmetrics "claimtriage/internal/ratelimit/metrics"
	ratelimit "claimtriage/internal/ratelimit/middleware"
	ratelimitmodels "claimtriage/internal/ratelimit/models"
	"claimtriage/internal/ratelimit/store/bucket"
	"claimtriage/pkg/platform/audit"
	"claimtriage/pkg/platform/circuit"
	"claimtriage/pkg/platform/httputil"
	"claimtriage/pkg/platform/middleware/admin"
	"claimtriage/pkg/platform/middleware/auth"
	"claimtriage/pkg/platform/middleware/request"
	"claimtriage/pkg/platform/middleware/requesttime"
)

// attemptBackend is what both the dispatcher and the admin API need from the
// attempt log.
type attemptBackend interface {
	dispatcher.AttemptStore
	claimshandler.AttemptLister
}

type app struct {
	router  http.Handler
	bus     *events.Bus
	logger  *slog.Logger
	closers []func() error
}

// buildApp wires stores, services, subscribers and routes from cfg.
func buildApp(ctx context.Context, cfg config.Server, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}
	auditLog := audit.NewLogger(logger, nil)

	var (
		claims   claimsservice.Store
		flags    fraudservice.FlagStore
		attempts attemptBackend
		db       *sql.DB
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		claims = claimstore.NewPostgres(db)
		flags = flagstore.NewPostgres(db)
		attempts = attemptstore.NewPostgres(db)
	} else {
		logger.Warn("CLAIMS_DATABASE_URL not set, using in-memory stores")
		claims = claimstore.NewInMemory()
		flags = flagstore.NewInMemory()
		attempts = attemptstore.NewInMemory()
	}

	analyticsOpts := []analytics.Option{analytics.WithLogger(logger)}
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	var (
		buckets ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
		cache   analytics.Cache
	)
	if redisClient != nil {
		buckets = bucket.NewRedisBucketStore(redisClient)
		a.closers = append(a.closers, redisClient.Close)
		cache = analyticscache.NewRedisCache(redisClient, cfg.Redis.SnapshotTTL)
		analyticsOpts = append(analyticsOpts, analytics.WithCache(cache))
	}
	dashboard := analytics.New(claims, flags, analyticsOpts...)
	snapshots := analytics.NewInvalidator(cache)

	triage := fraudservice.New(claims, flags,
		fraudservice.WithLogger(logger),
		fraudservice.WithAuditLogger(auditLog),
		fraudservice.WithMetrics(fraudmetrics.New()),
		fraudservice.WithRules(rulesConfig(cfg.Fraud)),
		fraudservice.WithTimeout(cfg.ClaimTxTimeout),
		fraudservice.WithSnapshotInvalidator(snapshots),
	)

	claimMetrics := claimsmetrics.New()
	a.bus = events.New(
		events.WithBufferSize(cfg.Events.BufferSize),
		events.WithWorkers(cfg.Events.Workers),
		events.WithLogger(logger),
		events.WithMetrics(claimMetrics),
	)

	claimSvc := claimsservice.New(claims, triage,
		claimsservice.WithLogger(logger),
		claimsservice.WithAuditLogger(auditLog),
		claimsservice.WithMetrics(claimMetrics),
		claimsservice.WithPublisher(a.bus),
		claimsservice.WithTxTimeout(cfg.ClaimTxTimeout),
		claimsservice.WithSnapshotInvalidator(snapshots),
	)

	a.bus.Subscribe(dispatcher.New(notificationChannel(cfg.Notification, logger), attempts,
		dispatcher.WithLogger(logger),
		dispatcher.WithAuditLogger(auditLog),
		dispatcher.WithMetrics(notificationmetrics.New()),
		dispatcher.WithAttemptTimeout(cfg.Notification.AttemptTimeout),
		dispatcher.WithBreaker(circuit.New("notification",
			circuit.WithFailureThreshold(cfg.Notification.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.Notification.SuccessThreshold),
		), 30*time.Second),
	))

	kafkaClient, err := kafka.NewClient(cfg.Kafka)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	if kafkaClient != nil {
		if err := kafka.EnsureTopic(ctx, kafkaClient, cfg.Kafka); err != nil {
			kafkaClient.Close()
			a.closeAll()
			return nil, err
		}
		a.closers = append(a.closers, func() error { kafkaClient.Close(); return nil })
		a.bus.Subscribe(events.NewKafkaRelay(kafkaClient, cfg.Kafka.Topic))
	}

	a.bus.Start()

	validator := jwttoken.NewActorValidator(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience))
	h := claimshandler.New(claimSvc, triage, dashboard, attempts, logger)
	httpMetrics := platformmetrics.New()

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.Logger(logger))
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Handle("/metrics", httpMetrics.Handler())
	r.Get("/healthz", healthHandler(db, redisClient))

	limiter := ratelimit.New(buckets, logger,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithMetrics(ratelimitmetrics.New()),
		ratelimit.WithPolicy(ratelimitmodels.ClassWrite, ratelimitmodels.Policy{Limit: cfg.RateLimit.WritesPerMinute, Window: time.Minute}),
		ratelimit.WithPolicy(ratelimitmodels.ClassRead, ratelimitmodels.Policy{Limit: cfg.RateLimit.ReadsPerMinute, Window: time.Minute}),
	)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireActor(validator, logger))
		r.Use(limiter.Handler)
		h.Register(r)
	})
	if cfg.AdminToken != "" {
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
			h.RegisterInternal(r)
		})
	} else {
		logger.Warn("CLAIMS_ADMIN_TOKEN not set, internal system routes disabled")
	}

	a.router = r
	return a, nil
}

// Close drains the event bus, then releases connections.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if err := a.bus.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("drain event bus: %w", err))
	}
	if err := a.closeAll(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// rulesConfig overlays the configured thresholds on the defaults; zero
// values keep the default.
func rulesConfig(cfg config.FraudConfig) rules.Config {
	rc := rules.DefaultConfig()
	if cfg.VelocityWindow > 0 {
		rc.VelocityWindow = cfg.VelocityWindow
	}
	if cfg.VelocityMaxClaims > 0 {
		rc.VelocityMaxClaims = cfg.VelocityMaxClaims
	}
	if cfg.OutlierStdDevs > 0 {
		rc.OutlierStdDevs = cfg.OutlierStdDevs
	}
	if cfg.OutlierMinSamples > 0 {
		rc.OutlierMinSamples = cfg.OutlierMinSamples
	}
	for k, v := range cfg.HardCaps {
		if ct, err := claimmodels.ParseClaimType(k); err == nil {
			if rc.HardCaps == nil {
				rc.HardCaps = map[claimmodels.ClaimType]claimmodels.Amount{}
			}
			rc.HardCaps[ct] = claimmodels.Amount(v)
		}
	}
	return rc
}

func notificationChannel(cfg config.NotificationConfig, logger *slog.Logger) channel.Channel {
	if cfg.WebhookURL == "" {
		return channel.NewLogChannel(logger)
	}
	return channel.NewWebhookChannel(cfg.WebhookURL, &http.Client{Timeout: cfg.AttemptTimeout})
}

func healthHandler(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status["postgres"], code = "down", http.StatusServiceUnavailable
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				status["redis"], code = "down", http.StatusServiceUnavailable
			}
		}
		if code != http.StatusOK {
			status["status"] = "degraded"
		}
		httputil.WriteJSON(w, code, status)
	}
}
