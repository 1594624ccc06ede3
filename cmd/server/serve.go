package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"grace/internal/auth/handler"
	"grace/internal/auth/metrics"
	"grace/internal/auth/models"
	"grace/internal/auth/password"
	"grace/internal/auth/service"
	sessionStore "grace/internal/auth/store/session"
	userStore "grace/internal/auth/store/user"
	"grace/internal/auth/strategy"
	"grace/internal/auth/workers/cleanup"
	jwttoken "grace/internal/jwt_token"
	"grace/internal/platform/config"
	"grace/internal/platform/database"
	"grace/internal/platform/health"
	"grace/internal/platform/httpserver"
	"grace/internal/platform/logger"
	"grace/internal/platform/privacy"
	platformredis "grace/internal/platform/redis"
	httptransport "grace/internal/transport/http"
	id "grace/pkg/domain"
	"grace/pkg/platform/middleware/request"
)

const (
	shutdownGrace     = 10 * time.Second
	poolStatsInterval = 15 * time.Second
)

// principalBackend is every principal store operation the process needs.
type principalBackend interface {
	Create(ctx context.Context, principal *models.Principal) error
	FindByID(ctx context.Context, principalID id.PrincipalID) (*models.Principal, error)
	FindByEmail(ctx context.Context, email string) (*models.Principal, error)
	FindOrCreateByExternalID(ctx context.Context, principal *models.Principal) (*models.Principal, error)
	Update(ctx context.Context, principalID id.PrincipalID, patch models.Patch) (*models.Principal, error)
	ListAll(ctx context.Context) ([]*models.Principal, error)
}

// sessionBackend is every session store operation the process needs.
type sessionBackend interface {
	Create(ctx context.Context, session *models.Session) error
	FindByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteByToken(ctx context.Context, token string) (bool, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type infra struct {
	principals principalBackend
	sessions   sessionBackend
	pool       *database.Pool
	redis      *platformredis.Client
}

func (i *infra) close(log *slog.Logger) {
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if err := i.pool.Close(); err != nil {
		log.Warn("failed to close database pool", "error", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing grace",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"carrier", cfg.Carrier,
		"token_ttl", cfg.TokenTTL.String(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics := metrics.New(reg)
	healthHandler := health.New(cfg.Environment)

	backends, err := connect(ctx, cfg, healthHandler, log)
	if err != nil {
		return err
	}
	defer backends.close(log)

	tokens := jwttoken.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	carrier, err := jwttoken.NewCarrier(cfg.Carrier, cfg.CookieSecure, cfg.TokenTTL)
	if err != nil {
		return err
	}
	hasher := password.NewHasher(cfg.BcryptCost)

	authService := service.New(
		backends.principals,
		backends.sessions,
		tokens,
		carrier,
		hasher,
		service.WithLogger(log),
		service.WithMetrics(authMetrics),
	)

	if cfg.Admin.Enabled() {
		created, err := authService.EnsureAdministrator(ctx, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			return fmt.Errorf("bootstrap administrator: %w", err)
		}
		log.Info("administrator bootstrap", "email", privacy.MaskEmail(cfg.Admin.Email), "created", created)
	}

	strategyOpts := []strategy.Option{strategy.WithLogger(log), strategy.WithMetrics(authMetrics)}
	var handlerOpts []handler.Option
	if cfg.Google.Enabled() {
		handlerOpts = append(handlerOpts, handler.WithGoogle(strategy.NewGoogle(strategy.GoogleConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
			SecureCookie: cfg.CookieSecure,
		}, backends.principals, strategyOpts...)))
	}

	authHandler := handler.New(
		authService,
		strategy.NewPassword(backends.principals, hasher, strategyOpts...),
		strategy.NewToken(carrier, tokens, backends.sessions, backends.principals, strategyOpts...),
		log,
		handlerOpts...,
	)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:   log,
		Health:   healthHandler,
		API:      authHandler,
		Gatherer: reg,
		Metrics:  request.NewMetrics(reg),
	})

	cleaner, err := cleanup.New(backends.sessions, cfg.TokenTTL,
		cleanup.WithCleanupInterval(cfg.CleanupInterval),
		cleanup.WithCleanupLogger(log),
		cleanup.WithCleanupMetrics(authMetrics),
	)
	if err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, router)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		return httpserver.Run(gctx, srv, shutdownGrace)
	})
	g.Go(func() error {
		return ignoreCanceled(cleaner.Start(gctx))
	})
	if backends.redis != nil {
		poolMetrics := platformredis.NewPoolMetrics(reg)
		g.Go(func() error {
			return ignoreCanceled(backends.redis.RunPoolStats(gctx, poolMetrics, poolStatsInterval))
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

// connect picks the storage backends. Postgres holds principals and sessions
// when configured; Redis takes over sessions when configured. Anything left
// falls back to memory, which is only acceptable locally.
func connect(ctx context.Context, cfg config.Server, healthHandler *health.Handler, log *slog.Logger) (*infra, error) {
	backends := &infra{
		principals: userStore.New(),
		sessions:   sessionStore.New(),
	}

	pool, err := database.New(ctx, database.DefaultConfig(cfg.DatabaseURL), log)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if pool != nil {
		backends.pool = pool
		backends.principals = userStore.NewPostgres(pool.DB())
		backends.sessions = sessionStore.NewPostgres(pool.DB())
		healthHandler.RegisterCheck("postgres", pool.Health)
		log.Info("using postgres stores")
	} else if !cfg.IsLocal() {
		return nil, errors.New("DATABASE_URL is required outside local environments")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		backends.close(log)
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if redisClient != nil {
		backends.redis = redisClient
		backends.sessions = sessionStore.NewRedis(redisClient.Client, cfg.TokenTTL)
		healthHandler.RegisterCheck("redis", redisClient.Health)
		log.Info("using redis session store")
	}

	return backends, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
