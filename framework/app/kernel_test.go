package app_test

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/app"
	"github.com/km-arc/scribe/framework/config"
	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/scene"
	"github.com/km-arc/scribe/framework/scope"
)

type Clock interface{ Now() int }

type tick int

func (t tick) Now() int { return int(t) }

// Mixer lives on an object built from a prefab.
type Mixer struct {
	scene.Behaviour
}

type player struct {
	scene.Behaviour
	Config *config.Config `inject:""`
	Mixer  *Mixer         `inject:""`
	Clock  Clock          `inject:""`
	Volume string         `inject:"volume"`
	Skin   string         `inject:"skin,optional"`
}

func testConfig(active bool) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "scribe", Env: "testing"},
		Scopes: config.ScopesConfig{Dir: "scopes", Active: active},
	}
}

func resourcesFS() fstest.MapFS {
	return fstest.MapFS{
		"scopes/core.yaml":  {Data: []byte("name: core\ninstaller: core\norder: 1\n")},
		"scopes/audio.yaml": {Data: []byte("name: audio\ninstaller: audio\norder: 2\nvalues:\n  volume: \"0.8\"\n")},
	}
}

func newApp(t *testing.T, active bool) *app.Application {
	t.Helper()
	a, err := app.New(testConfig(active),
		app.WithLogger(zap.NewNop()),
		app.WithResources(resourcesFS()),
	)
	require.NoError(t, err)

	a.Catalog.MustRegister("audio", scope.InstallerFunc(func(s *scope.Scope) error {
		return scope.BindTemplate[*Mixer](s, &scene.Prefab{
			Name:       "mixer",
			Components: []func() any{func() any { return &Mixer{} }},
		})
	}))
	return a
}

func TestApplication_BootDiscoversGlobalScopes(t *testing.T) {
	a := newApp(t, true)
	ctx := context.Background()

	require.NoError(t, a.Boot(ctx))
	require.NoError(t, a.Boot(ctx), "second boot is a no-op")
	assert.True(t, a.Booted())

	globals := a.Registry.Globals()
	require.Len(t, globals, 2)
	assert.Equal(t, "core", globals[0].Name())
	assert.Equal(t, "audio", globals[1].Name())

	cfg, ok := scope.Get[*config.Config](globals[0])
	require.True(t, ok)
	assert.Same(t, a.Config, cfg)

	require.NoError(t, a.Shutdown(ctx))
	assert.Empty(t, a.Registry.Globals())
}

func TestApplication_InactiveSkipsDiscovery(t *testing.T) {
	a := newApp(t, false)
	require.NoError(t, a.Boot(context.Background()))
	assert.Empty(t, a.Registry.Globals())
	assert.False(t, a.Registry.Initialized())
}

func TestApplication_EndToEnd(t *testing.T) {
	a := newApp(t, true)
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))

	lvl, session := a.OpenSession("level-1")
	require.NoError(t, scope.Bind[Clock](session, tick(42)))

	obj := lvl.NewObject("player")
	p := &player{}
	obj.AddComponent(p)

	require.NoError(t, a.Inject(ctx, p, p))
	assert.Same(t, a.Config, p.Config)
	assert.Equal(t, 42, p.Clock.Now())
	assert.Equal(t, "0.8", p.Volume)
	assert.Empty(t, p.Skin)
	require.NotNil(t, p.Mixer)

	// the mixer was built by a global scope and survives the session
	mixer := p.Mixer
	require.NoError(t, a.CloseSession(lvl.ID()))
	assert.True(t, session.Destroyed())
	assert.True(t, obj.Destroyed())
	assert.False(t, mixer.Destroyed())
	assert.Empty(t, a.Registry.SessionIDs())

	again, ok := container.As[*Mixer](a.Resolver.Resolve(nil, container.KeyOf[*Mixer]()))
	require.True(t, ok)
	assert.Same(t, mixer, again)

	require.NoError(t, a.Shutdown(ctx))
	assert.True(t, mixer.Destroyed(), "global scopes destroy what they built")
}

func TestApplication_RequiredMissing(t *testing.T) {
	a := newApp(t, true)
	ctx := context.Background()
	require.NoError(t, a.Boot(ctx))
	t.Cleanup(func() { _ = a.Shutdown(ctx) })

	lvl, _ := a.OpenSession("level-1")
	obj := lvl.NewObject("player")
	p := &player{}
	obj.AddComponent(p)

	err := a.Inject(ctx, p, p)
	var rerr *container.ResolutionError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "Clock", rerr.Field)
}

func TestApplication_UnknownInstallerFailsBoot(t *testing.T) {
	a, err := app.New(testConfig(true),
		app.WithLogger(zap.NewNop()),
		app.WithResources(fstest.MapFS{
			"scopes/x.yaml": {Data: []byte("name: x\ninstaller: ghost\n")},
		}),
	)
	require.NoError(t, err)
	assert.Error(t, a.Boot(context.Background()))
}

func TestApplication_RunStopsWithContext(t *testing.T) {
	a := newApp(t, true)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, a.Run(ctx))
	assert.True(t, a.Booted())
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestApplication_RunServesInspector(t *testing.T) {
	cfg := testConfig(true)
	cfg.Inspect = config.InspectConfig{Enabled: true, Addr: "127.0.0.1:0"}
	a, err := app.New(cfg, app.WithLogger(zap.NewNop()), app.WithResources(resourcesFS()))
	require.NoError(t, err)
	a.Catalog.MustRegister("audio", scope.InstallerFunc(func(*scope.Scope) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))
}

func TestApplication_Environment(t *testing.T) {
	a := newApp(t, true)
	assert.Equal(t, "testing", a.Environment())
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsDebug())
}
