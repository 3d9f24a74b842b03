// Package runtime wires configuration, stores, brokers and the HTTP server
// into a runnable gateway process.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"

	app "github.com/hackcrew/service_layer/internal/app"
	"github.com/hackcrew/service_layer/internal/app/auth"
	"github.com/hackcrew/service_layer/internal/app/httpapi"
	"github.com/hackcrew/service_layer/internal/app/metrics"
	"github.com/hackcrew/service_layer/internal/app/services/explore"
	"github.com/hackcrew/service_layer/internal/app/storage/memory"
	"github.com/hackcrew/service_layer/internal/app/storage/postgres"
	supastore "github.com/hackcrew/service_layer/internal/app/storage/supabase"
	"github.com/hackcrew/service_layer/internal/app/system"
	"github.com/hackcrew/service_layer/internal/config"
	"github.com/hackcrew/service_layer/internal/events"
	"github.com/hackcrew/service_layer/internal/generator"
	"github.com/hackcrew/service_layer/internal/lock"
	"github.com/hackcrew/service_layer/internal/logging"
	"github.com/hackcrew/service_layer/internal/middleware"
	"github.com/hackcrew/service_layer/internal/platform/migrations"
	"github.com/hackcrew/service_layer/supabase/client"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// Application owns the process-level resources behind the gateway.
type Application struct {
	cfg        *config.Config
	log        *logging.Logger
	app        *app.Application
	httpServer *http.Server

	db    *sqlx.DB
	redis *redis.Client
	nats  *events.NATSPublisher
}

// NewApplication loads configuration from the environment (and envFile, when
// present) and builds the gateway.
func NewApplication(ctx context.Context, envFile string) (*Application, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return Build(ctx, cfg, logging.New("gateway", cfg.Logging.Level, cfg.Logging.Format))
}

// Build wires the gateway from an already loaded configuration. Resources
// opened before a failure are released before Build returns.
func Build(ctx context.Context, cfg *config.Config, log *logging.Logger) (_ *Application, err error) {
	a := &Application{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	if cfg.Auth.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is the built-in default; issued tokens can be forged")
	}

	probes := map[string]httpapi.Probe{}

	stores, err := a.buildStores(ctx, probes)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	opts := app.Options{
		Generator: generator.New(generator.Config{
			BaseURL:           cfg.Generator.BaseURL,
			APIKey:            cfg.Generator.APIKey,
			Timeout:           cfg.Generator.Timeout,
			QuestionsPath:     cfg.Generator.QuestionsPath,
			AssignmentsPath:   cfg.Generator.AssignmentsPath,
			PRDPath:           cfg.Generator.PRDPath,
			QuestionsResult:   cfg.Generator.QuestionsResult,
			AssignmentsResult: cfg.Generator.AssignmentsResult,
			PRDResult:         cfg.Generator.PRDResult,
		}, log),
		Tokens:         auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		UploadMaxBytes: cfg.Upload.MaxBytes,
	}

	if cfg.Redis.URL != "" {
		a.redis, err = lock.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		opts.Locker = lock.NewRedisLocker(a.redis, cfg.Redis.LockTTL, lock.WithLogger(log.Logger))
		probes["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
		log.Info("generation locks shared through redis")
	}

	if cfg.NATS.URL != "" {
		a.nats, err = events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return nil, err
		}
		opts.Events = a.nats
		probes["nats"] = a.nats.Check
		log.WithField("prefix", cfg.NATS.SubjectPrefix).Info("publishing events to nats")
	}

	if cfg.Explore.DatasetPath != "" {
		opts.Catalog, err = explore.LoadCatalog(cfg.Explore.DatasetPath)
		if err != nil {
			return nil, err
		}
	}

	a.app, err = app.New(stores, opts, log)
	if err != nil {
		return nil, err
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		if err := a.app.Attach(rateLimitSweeper(limiter, cfg.RateLimit.CleanupSchedule)); err != nil {
			return nil, err
		}
	}

	handler := httpapi.NewHandler(a.app, httpapi.Config{
		Logger:      log,
		Tokens:      opts.Tokens,
		RequireAuth: cfg.Auth.RequireAuth,
		CORSOrigins: cfg.CORS.Origins(),
		RateLimiter: limiter,
		Version:     Version,
		Probes:      probes,
	})

	a.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return a, nil
}

// buildStores selects the persistence driver. Database probes are added to
// probes.
func (a *Application) buildStores(ctx context.Context, probes map[string]httpapi.Probe) (app.Stores, error) {
	cfg := a.cfg
	switch cfg.Store.Driver {
	case config.StoreSupabase:
		breaker := client.DefaultCircuitBreakerConfig()
		breaker.FailureThreshold = cfg.Supabase.BreakerThreshold
		if cfg.Supabase.BreakerOpenDuration > 0 {
			breaker.Timeout = cfg.Supabase.BreakerOpenDuration
		}
		breaker.OnStateChange = func(from, to client.CircuitState) {
			metrics.SetCircuitState(int(to))
			a.log.WithField("from", from.String()).WithField("to", to.String()).Warn("persistence gateway circuit changed state")
		}
		retry := client.DefaultRetryConfig()
		retry.MaxRetries = cfg.Supabase.MaxRetries

		db, transport, err := client.NewResilient(client.ResilienceConfig{
			Config: client.Config{
				URL:      cfg.Supabase.URL,
				APIKey:   cfg.Supabase.ServiceKey,
				Observer: metrics.ObserveGatewayRequest,
			},
			Timeout:              cfg.Store.GatewayTimeout,
			RetryConfig:          retry,
			CircuitBreakerConfig: breaker,
		})
		if err != nil {
			return app.Stores{}, fmt.Errorf("supabase client: %w", err)
		}
		probes["supabase"] = func(context.Context) error {
			if state := transport.Breaker().State(); state == client.CircuitOpen {
				return client.ErrCircuitOpen
			}
			return nil
		}
		store := supastore.New(db, a.log)
		return app.Stores{
			Projects: store, Teams: store, Profiles: store, Ideation: store,
			Research: store, Accounts: store,
			Objects: supastore.NewObjects(db, cfg.Supabase.Bucket),
		}, nil

	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
		if err != nil {
			return app.Stores{}, err
		}
		a.db = db
		if cfg.Database.MigrateOnStart {
			if err := migrations.Up(db.DB); err != nil {
				return app.Stores{}, fmt.Errorf("migrate: %w", err)
			}
		}
		probes["database"] = db.PingContext
		store := postgres.New(db, postgres.WithTimeout(cfg.Store.GatewayTimeout))
		a.log.Warn("postgres driver has no object store; research PDFs are kept in memory")
		return app.Stores{
			Projects: store, Teams: store, Profiles: store, Ideation: store,
			Research: store, Accounts: store,
			Objects: memory.NewObjects("memory://" + cfg.Supabase.Bucket),
		}, nil

	case config.StoreMemory:
		a.log.Warn("using in-memory stores; data is lost on restart")
		return app.Stores{}, nil
	}
	return app.Stores{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func rateLimitSweeper(limiter *middleware.RateLimiter, spec string) system.Service {
	var stop func() context.Context
	return system.Func{
		ServiceName: "ratelimit-sweeper",
		OnStart: func(context.Context) error {
			c, err := limiter.StartCleanup(spec)
			if err != nil {
				return fmt.Errorf("schedule rate limiter cleanup %q: %w", spec, err)
			}
			stop = c.Stop
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if stop == nil {
				return nil
			}
			select {
			case <-stop().Done():
			case <-ctx.Done():
			}
			return nil
		},
	}
}

// Handler exposes the routed API, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the background components and the HTTP server, and blocks until
// ctx is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start components: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.httpServer.Addr).WithField("version", Version).Info("HTTP server listening")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown drains the HTTP server, stops background components and closes
// connections.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.app.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	a.closeResources()
	return errors.Join(errs...)
}

func (a *Application) closeResources() {
	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			a.log.WithError(err).Warn("error closing nats connection")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
}
