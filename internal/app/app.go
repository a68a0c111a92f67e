// internal/app/app.go
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"librarymanager/internal/catalog"
	"librarymanager/internal/clients"
	"librarymanager/internal/config"
	"librarymanager/internal/observability"
	"librarymanager/internal/storage"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

// App holds the components shared by the HTTP service and the terminal client.
type App struct {
	Config  *config.Config
	Store   catalog.Store
	Catalog *catalog.Controller
	Metrics *observability.Metrics

	notify catalog.Notifier
	tracer *observability.TracerProvider
	db     *sql.DB
}

// New opens the configured store and builds the catalog controller. notify
// receives the controller's and coordinators' notifications; nil logs them.
func New(ctx context.Context, cfg *config.Config, service string, notify catalog.Notifier) (*App, error) {
	if notify == nil {
		notify = catalog.LogNotifier{}
	}

	tracer, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Enabled:        cfg.Telemetry.Tracing.Enabled,
		Endpoint:       cfg.Telemetry.Tracing.Endpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
		ServiceName:    service,
		ServiceVersion: Version,
	})
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics(observability.MetricsConfig{Enabled: cfg.Telemetry.Metrics.Enabled})
	if err != nil {
		tracer.Shutdown(ctx)
		return nil, err
	}

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		tracer.Shutdown(ctx)
		metrics.Shutdown(ctx)
		return nil, err
	}
	store = catalog.Instrument(store, metrics)

	log.Info().
		Str("driver", cfg.Store.Driver).
		Bool("tracing", cfg.Telemetry.Tracing.Enabled).
		Bool("metrics", cfg.Telemetry.Metrics.Enabled).
		Msg("catalog store ready")

	return &App{
		Config:  cfg,
		Store:   store,
		Catalog: catalog.NewController(store, notify, metrics),
		Metrics: metrics,
		notify:  notify,
		tracer:  tracer,
		db:      db,
	}, nil
}

// NewCoordinator builds a coordinator over the app's store and catalog.
// Later options override the app's notifier and metrics.
func (a *App) NewCoordinator(opts ...catalog.CoordinatorOption) *catalog.Coordinator {
	base := []catalog.CoordinatorOption{
		catalog.WithNotifier(a.notify),
		catalog.WithMetrics(a.Metrics),
	}
	return catalog.NewCoordinator(a.Store, a.Catalog, append(base, opts...)...)
}

// History returns the store's journal, or nil when it keeps none.
func (a *App) History() catalog.Historian {
	h, _ := a.Store.(catalog.Historian)
	return h
}

// Close releases the store and flushes telemetry.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	errs = append(errs, a.Metrics.Shutdown(ctx), a.tracer.Shutdown(ctx))
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg *config.Config) (catalog.Store, *sql.DB, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		pg := storage.NewPostgres(db)
		if cfg.Database.AutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return pg, db, nil

	case config.DriverREST:
		return clients.NewRESTStore(clients.RESTConfig{
			BaseURL:     cfg.REST.URL,
			APIKey:      cfg.REST.APIKey,
			Timeout:     cfg.REST.Timeout,
			MaxFailures: cfg.REST.Breaker.MaxFailures,
			OpenTimeout: cfg.REST.Breaker.OpenTimeout,
		}), nil, nil

	case config.DriverMemory:
		return storage.NewMemory(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
