// Package app assembles the server: configuration, container, router,
// storage and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoCodeAlone/modkit"
	"github.com/GoCodeAlone/modkit/config"
	"github.com/GoCodeAlone/modkit/health"
	"github.com/GoCodeAlone/modkit/internal/i18n"
	"github.com/GoCodeAlone/modkit/modules/chimux"
	"github.com/GoCodeAlone/modkit/modules/user"
)

// MetricsPath serves the Prometheus registry, outside the API base path.
const MetricsPath = "/metrics"

// healthTimeout bounds each health check.
const healthTimeout = 2 * time.Second

var ErrUnknownDriver = errors.New("unknown database driver")

// Option configures Build.
type Option func(*options)

type options struct {
	observers []modkit.Observer
	db        *sqlx.DB
}

// WithObservers forwards container and router events to observers.
func WithObservers(observers ...modkit.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, observers...) }
}

// WithDB uses db for the postgres driver instead of opening the DSN.
func WithDB(db *sqlx.DB) Option {
	return func(o *options) { o.db = db }
}

// App is a bootstrapped server ready to be served.
type App struct {
	Config    *config.AppConfig
	Container *modkit.Container
	Router    *chimux.Router
	Metrics   *prometheus.Registry
	Health    *health.Aggregator

	routes []modkit.Route
	db     *sqlx.DB
}

// Build wires the application module into a fresh container and binds its
// controllers under the configured base path.
func Build(ctx context.Context, cfg *config.AppConfig, logger modkit.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}
	if logger == nil {
		logger = modkit.NopLogger{}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	meta := modkit.NewMetadata()
	if err := Define(meta); err != nil {
		return nil, fmt.Errorf("declaring modules: %w", err)
	}

	container, err := modkit.NewContainer(
		modkit.WithMetadata(meta),
		modkit.WithLogger(logger),
		modkit.WithObservers(o.observers...),
		modkit.WithMetrics(reg),
		modkit.WithEagerSingletons(cfg.Container.EagerSingletons),
	)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Container: container, Metrics: reg, Health: health.NewAggregator(healthTimeout)}

	repo, err := a.openRepository(ctx, o.db, logger)
	if err != nil {
		return nil, err
	}

	catalog := i18n.NewCatalog(i18n.Parse(cfg.Lang.Default, i18n.Vietnamese))
	values := map[modkit.Token]any{
		modkit.TokenFor[config.AppConfig]():  cfg,
		modkit.TokenFor[i18n.Catalog]():      catalog,
		modkit.TokenFor[health.Aggregator](): a.Health,
		user.RepositoryToken:                 repo,
	}
	for token, value := range values {
		if err := container.RegisterValue(token, value); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.Router, err = chimux.New(chimux.ConfigFromApp(cfg), logger,
		chimux.WithMetrics(reg),
		chimux.WithObservers(o.observers...),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.routes, err = container.Bootstrap(ctx, a.Router.API(), modkit.TypeOf[Module]())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Router.Mux().Handle(MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	logger.Info("Application built", "routes", len(a.routes), "basePath", cfg.HTTP.BasePath, "database", cfg.Database.Driver)
	return a, nil
}

func (a *App) openRepository(ctx context.Context, db *sqlx.DB, logger modkit.Logger) (user.Repository, error) {
	switch a.Config.Database.Driver {
	case "memory":
		return user.NewMemoryRepository(), nil
	case "postgres":
		if db == nil {
			var err error
			if db, err = sqlx.Open("postgres", a.Config.Database.DSN); err != nil {
				return nil, fmt.Errorf("opening database: %w", err)
			}
			db.SetMaxOpenConns(a.Config.Database.MaxOpenConns)
		}
		a.db = db

		if err := db.PingContext(ctx); err != nil {
			logger.Error("Database connection failed", "error", err)
			_ = a.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("Database connected", "driver", "postgres")

		repo := user.NewSQLRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		if err := a.Health.Register(health.PingCheck("database", db)); err != nil {
			_ = a.Close()
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, a.Config.Database.Driver)
	}
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.Router }

// Routes returns the bound controller routes in collection order.
func (a *App) Routes() []modkit.Route { return a.routes }

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
