package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/app"
	"github.com/km-arc/scribe/framework/config"
	"github.com/km-arc/scribe/framework/scene"
	"github.com/km-arc/scribe/framework/scope"
)

// Mixer is a global audio service built from a prefab on first use.
type Mixer struct {
	scene.Behaviour
	Bus string
}

// Clock is provided per level.
type Clock struct{ Tick int }

// Player pulls its dependencies from the scopes above it.
type Player struct {
	scene.Behaviour
	Log    *zap.Logger    `inject:""`
	Config *config.Config `inject:""`
	Mixer  *Mixer         `inject:""`
	Clock  *Clock         `inject:""`
	Volume string         `inject:"volume"`
	Skin   string         `inject:"skin,optional"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	application.Catalog.MustRegister("audio", scope.InstallerFunc(func(s *scope.Scope) error {
		return scope.BindTemplate[*Mixer](s, &scene.Prefab{
			Name:       "audio-mixer",
			Components: []func() any{func() any { return &Mixer{Bus: "master"} }},
		})
	}))

	if err := application.Boot(ctx); err != nil {
		return err
	}
	defer func() { _ = application.Shutdown(context.Background()) }()

	level, session := application.OpenSession("level-1")
	if err := scope.Bind(session, &Clock{Tick: 1}); err != nil {
		return err
	}

	hero := level.NewObject("hero")
	local := scope.NewLocal("hero", scope.WithHost(application.World))
	hero.AttachScope(local)
	if err := scope.BindID(local, "skin", "knight"); err != nil {
		return err
	}

	p := &Player{}
	hero.AddComponent(p)
	if err := application.Inject(ctx, p, p); err != nil {
		return err
	}
	p.Log.Info("player ready",
		zap.String("app", p.Config.App.Name),
		zap.String("bus", p.Mixer.Bus),
		zap.Int("tick", p.Clock.Tick),
		zap.String("volume", p.Volume),
		zap.String("skin", p.Skin),
	)

	return application.Run(ctx)
}
