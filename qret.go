package qret

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/loam"
	"github.com/aretw0/qret/internal/config"
	"github.com/aretw0/qret/internal/logging"
	"github.com/aretw0/qret/internal/metrics"
	"github.com/aretw0/qret/internal/validator"
	"github.com/aretw0/qret/pkg/adapters/file"
	"github.com/aretw0/qret/pkg/adapters/fixture"
	httpAdapter "github.com/aretw0/qret/pkg/adapters/http"
	loamAdapter "github.com/aretw0/qret/pkg/adapters/loam"
	mcpAdapter "github.com/aretw0/qret/pkg/adapters/mcp"
	"github.com/aretw0/qret/pkg/adapters/memory"
	redisAdapter "github.com/aretw0/qret/pkg/adapters/redis"
	"github.com/aretw0/qret/pkg/adapters/xlsx"
	"github.com/aretw0/qret/pkg/domain"
	"github.com/aretw0/qret/pkg/persistence/middleware"
	"github.com/aretw0/qret/pkg/ports"
	"github.com/aretw0/qret/pkg/session"
	goredis "github.com/redis/go-redis/v9"
)

// Config is the host configuration read by New.
type Config = config.Config

// DefaultConfig runs entirely in memory on the built-in demo data.
func DefaultConfig() Config {
	return config.Default()
}

// LoadConfig reads a YAML configuration on top of DefaultConfig.
func LoadConfig(path string, optional bool) (Config, error) {
	return config.Load(path, optional)
}

// App is a fully wired QRET host: snapshot storage, price catalog, invoice
// source, screen tree and the session manager that drives them.
type App struct {
	Config   Config
	Sessions *session.Manager
	Fixture  *fixture.File
	Invoices ports.InvoiceSource
	Metrics  *metrics.Collector
	Logger   *slog.Logger

	closers []func() error
}

// Option configures the App.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	store   ports.SnapshotStore
	catalog ports.Catalog
	fixture *fixture.File
	hooks   domain.Hooks
	locker  ports.DistributedLocker
}

// WithLogger sets the logger. Defaults to one built from the config level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore overrides the snapshot store selected by store.kind.
// Masking and encryption from the config still wrap it.
func WithStore(s ports.SnapshotStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCatalog overrides the price authority selected by catalog.source.
func WithCatalog(c ports.Catalog) Option {
	return func(o *options) {
		o.catalog = c
	}
}

// WithFixture overrides the demo data (screen, invoices, prices).
func WithFixture(f *fixture.File) Option {
	return func(o *options) {
		o.fixture = f
	}
}

// WithHooks registers lifecycle callbacks in addition to metrics.
func WithHooks(hooks domain.Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithLocker sets a distributed locker, replacing the redis one from config.
func WithLocker(l ports.DistributedLocker) Option {
	return func(o *options) {
		o.locker = l
	}
}

// New wires an App from cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	app := &App{Config: cfg, Logger: o.logger}
	if app.Logger == nil {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		app.Logger = logging.NewWriter(os.Stderr, level, logging.Format(cfg.LogFormat))
	}

	ok := false
	defer func() {
		if !ok {
			_ = app.Close()
		}
	}()

	fx := o.fixture
	if fx == nil {
		var err error
		if fx, err = loadFixture(cfg.Fixtures.Path); err != nil {
			return nil, err
		}
	}
	app.Fixture = fx
	app.Invoices = fx.InvoiceSource()

	tree, err := fx.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to build screen: %w", err)
	}
	if err := validator.ValidateTree(tree); err != nil {
		app.Logger.Warn("screen has unreachable vignettes", "error", err)
	}

	catalog := o.catalog
	if catalog == nil {
		if catalog, err = openCatalog(ctx, cfg.Catalog, fx); err != nil {
			return nil, err
		}
	}

	base := o.store
	if base == nil {
		if base, err = app.openStore(cfg); err != nil {
			return nil, err
		}
	}
	snapshots, err := protect(base, cfg.Store)
	if err != nil {
		return nil, err
	}

	app.Metrics = metrics.NewCollector()
	sessionOpts := []session.Option{
		session.WithLogger(app.Logger),
		session.WithTree(tree),
		session.WithHooks(mergeHooks(app.Metrics.Hooks(), o.hooks)),
	}
	if cfg.Session.LockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(cfg.Session.LockTTL))
	}
	if cfg.Session.StrictPhases {
		sessionOpts = append(sessionOpts, session.WithPhaseGuard(
			session.Guards(session.NoSkipping(), session.RequireReturnItems()),
		))
	}
	locker := o.locker
	if locker == nil && cfg.Redis.Lock {
		locker = app.redisLocker(cfg.Redis)
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}

	app.Sessions = session.NewManager(snapshots, catalog, sessionOpts...)
	app.Logger.Debug("qret initialized",
		"store", cfg.Store.Kind,
		"catalog", cfg.Catalog.Source,
		"catalog_version", catalog.Version(),
		"strict_phases", cfg.Session.StrictPhases,
	)
	ok = true
	return app, nil
}

// Close releases connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// ReloadCatalog re-reads the price catalog. It reports false when the
// configured catalog is static.
func (a *App) ReloadCatalog(ctx context.Context) (bool, error) {
	catalog, ok := a.Sessions.Catalog().(ports.ReloadableCatalog)
	if !ok {
		return false, nil
	}
	before := catalog.Version()
	if err := catalog.Reload(ctx); err != nil {
		return true, fmt.Errorf("failed to reload catalog: %w", err)
	}
	a.Logger.Info("catalog reloaded", "version", catalog.Version(), "changed", before != catalog.Version())
	return true, nil
}

// HTTPHandler returns the REST API bound to this App.
func (a *App) HTTPHandler() (http.Handler, error) {
	return httpAdapter.NewHandler(a.Sessions,
		httpAdapter.WithInvoices(a.Invoices),
		httpAdapter.WithMetrics(a.Metrics),
		httpAdapter.WithFastFill(a.Fixture.Selection),
		httpAdapter.WithVersion(Version),
		httpAdapter.WithLogger(a.Logger),
	)
}

// MCPServer returns the Model Context Protocol server bound to this App.
func (a *App) MCPServer() *mcpAdapter.Server {
	return mcpAdapter.NewServer(a.Sessions,
		mcpAdapter.WithInvoices(a.Invoices),
		mcpAdapter.WithFastFill(a.Fixture.Selection),
		mcpAdapter.WithVersion(Version),
		mcpAdapter.WithLogger(a.Logger),
	)
}

func loadFixture(path string) (*fixture.File, error) {
	if path == "" {
		return fixture.Demo(), nil
	}
	fx, err := fixture.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	return fx, nil
}

func openCatalog(ctx context.Context, cfg config.Catalog, fx *fixture.File) (ports.Catalog, error) {
	switch cfg.Source {
	case "loam":
		return loamAdapter.Open(ctx, cfg.Path, loam.WithReadOnly(true))
	case "xlsx":
		return xlsx.Load(cfg.Path, cfg.Sheet)
	default:
		return fx.PriceCatalog(), nil
	}
}

func (a *App) openStore(cfg Config) (ports.SnapshotStore, error) {
	switch cfg.Store.Kind {
	case "file":
		return file.New(cfg.Store.Path), nil
	case "redis":
		s := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithTTL(cfg.Store.TTL),
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
		)
		a.closers = append(a.closers, s.Close)
		return s, nil
	case "memory", "":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

func (a *App) redisLocker(cfg config.Redis) ports.DistributedLocker {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	a.closers = append(a.closers, client.Close)
	return redisAdapter.NewLocker(client, cfg.Prefix+"lock:")
}

// protect wraps s with masking and encryption. Masking runs first so sealed
// envelopes never hold clear personal data.
func protect(s ports.SnapshotStore, cfg config.Store) (ports.SnapshotStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Mask) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.Mask)
		if err != nil {
			return nil, fmt.Errorf("store.mask: %w", err)
		}
		mws = append(mws, mw)
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, err
	}
	if key != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(s, mws...), nil
}

func mergeHooks(a, b domain.Hooks) domain.Hooks {
	return domain.Hooks{
		OnClick: func(ctx context.Context, e *domain.ClickEvent) {
			if a.OnClick != nil {
				a.OnClick(ctx, e)
			}
			if b.OnClick != nil {
				b.OnClick(ctx, e)
			}
		},
		OnPhase: func(ctx context.Context, e *domain.PhaseEvent) {
			if a.OnPhase != nil {
				a.OnPhase(ctx, e)
			}
			if b.OnPhase != nil {
				b.OnPhase(ctx, e)
			}
		},
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			if a.OnDispatch != nil {
				a.OnDispatch(ctx, e)
			}
			if b.OnDispatch != nil {
				b.OnDispatch(ctx, e)
			}
		},
		OnDerive: func(ctx context.Context, e *domain.DeriveEvent) {
			if a.OnDerive != nil {
				a.OnDerive(ctx, e)
			}
			if b.OnDerive != nil {
				b.OnDerive(ctx, e)
			}
		},
	}
}
