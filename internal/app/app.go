// Package app wires the storefront's dependencies and runs the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakachris/ecom-frontend/pkg/database"
	"github.com/sakachris/ecom-frontend/pkg/health"
	"github.com/sakachris/ecom-frontend/pkg/httpclient"
	"github.com/sakachris/ecom-frontend/pkg/middleware"
	"github.com/sakachris/ecom-frontend/pkg/tracing"

	"github.com/sakachris/ecom-frontend/internal/config"
	handler "github.com/sakachris/ecom-frontend/internal/handler/http"
	"github.com/sakachris/ecom-frontend/internal/service"
	"github.com/sakachris/ecom-frontend/internal/session"
	"github.com/sakachris/ecom-frontend/internal/tokenstore"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	httpServer     *http.Server
	redisClient    *redis.Client
	tracerShutdown func(context.Context) error
}

// NewApp creates the application: session store, upstream client, services,
// and the HTTP router.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "ecom-frontend",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSample,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	store := tokenstore.NewRedisStore(redisClient, logger, cfg.SessionTTL)

	// Upstream HTTP client, optionally behind a circuit breaker so a dead
	// upstream degrades fast instead of tying up request goroutines.
	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.UpstreamTimeout
	httpCfg.UserAgent = cfg.UpstreamUserAgent
	baseClient := httpclient.New(httpCfg)

	var doer upstream.HTTPDoer = baseClient
	if cfg.CircuitBreaker {
		doer = httpclient.NewCircuitBreakerClient(
			baseClient,
			httpclient.DefaultCircuitBreakerConfig("upstream-api"),
			logger,
		)
	}

	api := upstream.NewClient(cfg.UpstreamBaseURL, doer, logger)
	registry := session.NewRegistry(store, api, logger)

	catalogSvc := service.NewCatalogService(api, logger)
	profileSvc := service.NewProfileService(logger)

	healthHandler := health.NewHandler()
	// Session storage is fail-open: without Redis the storefront still
	// serves anonymous browsing, so its outage only degrades readiness.
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("upstream", func(ctx context.Context) error {
		u, err := url.Parse(cfg.UpstreamBaseURL)
		if err != nil {
			return fmt.Errorf("parse upstream URL: %w", err)
		}
		d := net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return fmt.Errorf("upstream unreachable: %w", err)
		}
		_ = conn.Close()
		return nil
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	corsCfg.AllowCredentials = true
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		Logger:        logger,
		Registry:      registry,
		Auth:          handler.NewAuthHandler(logger),
		Account:       handler.NewAccountHandler(profileSvc, logger),
		Catalog:       handler.NewCatalogHandler(catalogSvc, logger),
		Health:        healthHandler,
		CORS:          corsCfg,
		SecureCookies: cfg.SecureCookies,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		httpServer:     httpServer,
		redisClient:    redisClient,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops the application in order: drain HTTP, close Redis, flush
// the tracer.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if err := a.redisClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close: %w", err))
	}

	if a.tracerShutdown != nil {
		traceCtx, traceCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer traceCancel()
		if err := a.tracerShutdown(traceCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("application stopped")
	return nil
}
