package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/scribe/framework/config"
	"github.com/km-arc/scribe/framework/inject"
	"github.com/km-arc/scribe/framework/inspect"
	"github.com/km-arc/scribe/framework/logging"
	"github.com/km-arc/scribe/framework/providers"
	"github.com/km-arc/scribe/framework/resolver"
	"github.com/km-arc/scribe/framework/resources"
	"github.com/km-arc/scribe/framework/scene"
	"github.com/km-arc/scribe/framework/scope"
	"github.com/km-arc/scribe/framework/telemetry"
)

// CoreInstaller is the catalog name of the installer that binds the
// configuration and the logger.
const CoreInstaller = "core"

// Application wires the registry, the scene world, the resolver and the
// injector together.
//
//	application, err := app.New(cfg)
//	application.Catalog.MustRegister("audio", audioInstaller)
//	err = application.Boot(ctx)
//	defer application.Shutdown(ctx)
type Application struct {
	Config    *config.Config
	Logger    *zap.Logger
	Registry  *scope.Registry
	World     *scene.World
	Resolver  *resolver.Resolver
	Injector  *inject.Injector
	Catalog   *providers.Catalog
	Inspector *inspect.Inspector

	resources fs.FS
	sessions  map[scope.SessionID]*scope.Scope
	stopTrace func(context.Context) error
	booted    bool
}

// Option configures an Application.
type Option func(*Application)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *zap.Logger) Option {
	return func(a *Application) {
		if l != nil {
			a.Logger = l
		}
	}
}

// WithResources sets the file system SCOPES_DIR is read from. The working
// directory is used otherwise.
func WithResources(fsys fs.FS) Option {
	return func(a *Application) {
		if fsys != nil {
			a.resources = fsys
		}
	}
}

// New creates the application. A nil cfg is loaded from the environment.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	a := &Application{
		Config:    cfg,
		resources: os.DirFS("."),
		sessions:  make(map[scope.SessionID]*scope.Scope),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		l, err := logging.New(cfg.App.Env, cfg.App.Debug)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		a.Logger = l
	}

	a.World = scene.NewWorld(scene.WithLogger(a.Logger.Named("scene")))
	a.Registry = scope.NewRegistry(
		scope.WithActiveCheck(func() bool { return cfg.Scopes.Active }),
		scope.WithGlobalHost(a.World),
		scope.WithRegistryLogger(a.Logger.Named("scope")),
	)
	a.Resolver = resolver.New(a.Registry, a.World, resolver.WithLogger(a.Logger.Named("resolver")))
	a.Injector = inject.New(a.Resolver, inject.WithLogger(a.Logger.Named("inject")))
	a.Inspector = inspect.New(a.Registry, inspect.WithLogger(a.Logger.Named("inspect")))
	a.Catalog = providers.NewCatalog().MustRegister(CoreInstaller, providers.Chain(
		providers.Config(cfg),
		providers.Logger(a.Logger),
	))
	return a, nil
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Boot starts tracing and discovers the global scopes under SCOPES_DIR.
// Calling it again is a no-op.
func (a *Application) Boot(ctx context.Context) error {
	if a.booted {
		return nil
	}

	stop, err := telemetry.Setup(ctx, a.Config.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	a.stopTrace = stop

	src := resources.NewFSSource(a.resources, a.Config.Scopes.Dir, a.Catalog,
		resources.WithLogger(a.Logger.Named("resources")),
	)
	if err := a.Registry.Init(src); err != nil {
		return fmt.Errorf("init scope registry: %w", err)
	}

	a.booted = true
	a.Logger.Info("application booted",
		zap.String("app", a.Config.App.Name),
		zap.String("env", a.Config.App.Env),
		zap.Int("global_scopes", len(a.Registry.Globals())),
	)
	return nil
}

// Booted reports whether Boot completed.
func (a *Application) Booted() bool { return a.booted }

// Run serves the inspector, when enabled, until ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if !a.booted {
		if err := a.Boot(ctx); err != nil {
			return err
		}
	}
	if !a.Config.Inspect.Enabled {
		<-ctx.Done()
		return nil
	}

	srv := &http.Server{
		Addr:              a.Config.Inspect.Addr,
		Handler:           a.Inspector.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("inspector listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("inspector: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown closes open sessions, clears the global scopes and flushes
// tracing and logs.
func (a *Application) Shutdown(ctx context.Context) error {
	for id := range a.sessions {
		if err := a.CloseSession(id); err != nil {
			a.Logger.Warn("close session", zap.String("session", string(id)), zap.Error(err))
		}
	}
	a.Registry.ClearGlobal()

	var err error
	if a.stopTrace != nil {
		err = a.stopTrace(ctx)
	}
	_ = a.Logger.Sync()
	return err
}

// ── Sessions ──────────────────────────────────────────────────────────────────

// OpenSession loads a scene and registers a session scope for it.
func (a *Application) OpenSession(name string) (*scene.Scene, *scope.Scope) {
	s := a.World.LoadScene(name)
	sc := scope.NewSession(name,
		scope.WithHost(a.World),
		scope.WithLogger(a.Logger.Named("scope")),
	)
	a.Registry.RegisterSession(s.ID(), sc)
	a.sessions[s.ID()] = sc
	return s, sc
}

// CloseSession unregisters and closes the session scope, then unloads the
// scene.
func (a *Application) CloseSession(id scope.SessionID) error {
	if sc, ok := a.sessions[id]; ok {
		a.Registry.UnregisterSession(id, sc)
		sc.Close()
		delete(a.sessions, id)
	}
	return a.World.UnloadScene(id)
}

// Inject fills target from the scope chain of node.
func (a *Application) Inject(ctx context.Context, node resolver.Node, target any) error {
	return a.Injector.Inject(ctx, node, target)
}

// ── Environment ───────────────────────────────────────────────────────────────

func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Config.IsProduction() }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
