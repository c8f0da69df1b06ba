package scope_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/scope"
)

func descriptors(ds ...scope.Descriptor) scope.DescriptorSource {
	return scope.DescriptorSourceFunc(func() ([]scope.Descriptor, error) { return ds, nil })
}

// ── Session scopes ────────────────────────────────────────────────────────────

func TestRegistry_RegisterSession_InsertionOrder(t *testing.T) {
	t.Parallel()

	r := scope.NewRegistry()
	a, b := scope.NewSession("a"), scope.NewSession("b")

	r.RegisterSession("level-1", a)
	r.RegisterSession("level-1", b)
	r.RegisterSession("level-2", b)

	assert.Equal(t, []*scope.Scope{a, b}, r.Sessions("level-1"))
	assert.Equal(t, []*scope.Scope{b}, r.Sessions("level-2"))
	assert.Equal(t, []scope.SessionID{"level-1", "level-2"}, r.SessionIDs())
}

func TestRegistry_UnregisterSession(t *testing.T) {
	t.Parallel()

	r := scope.NewRegistry()
	a, b := scope.NewSession("a"), scope.NewSession("b")
	r.RegisterSession("s", a)
	r.RegisterSession("s", b)

	r.UnregisterSession("s", a)
	assert.Equal(t, []*scope.Scope{b}, r.Sessions("s"))

	// unknown scope and unknown session are no-ops
	r.UnregisterSession("s", a)
	r.UnregisterSession("missing", b)
	assert.Equal(t, []*scope.Scope{b}, r.Sessions("s"))

	r.UnregisterSession("s", b)
	assert.Empty(t, r.Sessions("s"))
	assert.Empty(t, r.SessionIDs())
}

func TestRegistry_SessionsReturnsCopy(t *testing.T) {
	t.Parallel()

	r := scope.NewRegistry()
	r.RegisterSession("s", scope.NewSession("a"))

	got := r.Sessions("s")
	got[0] = nil

	assert.NotNil(t, r.Sessions("s")[0])
}

// ── Global scopes ─────────────────────────────────────────────────────────────

func TestRegistry_Init_RunsInstallersInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	install := func(name string) scope.Installer {
		return scope.InstallerFunc(func(s *scope.Scope) error {
			order = append(order, name)
			return scope.BindID(s, "owner", name)
		})
	}

	r := scope.NewRegistry()
	err := r.Init(descriptors(
		scope.Descriptor{Name: "core", Installer: install("core")},
		scope.Descriptor{Name: "audio", Installer: install("audio")},
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"core", "audio"}, order)
	globals := r.Globals()
	require.Len(t, globals, 2)
	assert.Equal(t, "core", globals[0].Name())
	assert.Equal(t, scope.Global, globals[0].Mode())

	owner, ok := globals[1].Get(container.KeyFor[string]("owner"))
	require.True(t, ok)
	assert.Equal(t, "audio", owner)
	assert.True(t, r.Initialized())
}

func TestRegistry_Init_OnlyOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	src := scope.DescriptorSourceFunc(func() ([]scope.Descriptor, error) {
		calls++
		return []scope.Descriptor{{Name: "core"}}, nil
	})

	r := scope.NewRegistry()
	require.NoError(t, r.Init(src))
	require.NoError(t, r.Init(src))

	assert.Equal(t, 1, calls)
	assert.Len(t, r.Globals(), 1)
}

func TestRegistry_Init_SkippedWhenInactive(t *testing.T) {
	t.Parallel()

	active := false
	r := scope.NewRegistry(scope.WithActiveCheck(func() bool { return active }))
	src := descriptors(scope.Descriptor{Name: "core"})

	require.NoError(t, r.Init(src))
	assert.Empty(t, r.Globals())
	assert.False(t, r.Initialized())

	active = true
	require.NoError(t, r.Init(src))
	assert.Len(t, r.Globals(), 1)
}

func TestRegistry_Init_InstallerErrorStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := scope.NewRegistry()
	err := r.Init(descriptors(
		scope.Descriptor{Name: "ok"},
		scope.Descriptor{Name: "bad", Installer: scope.InstallerFunc(func(*scope.Scope) error { return boom })},
		scope.Descriptor{Name: "never"},
	))

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `register global scope "bad"`)
	globals := r.Globals()
	require.Len(t, globals, 1)
	assert.Equal(t, "ok", globals[0].Name())
}

func TestRegistry_Init_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk on fire")
	r := scope.NewRegistry()
	err := r.Init(scope.DescriptorSourceFunc(func() ([]scope.Descriptor, error) { return nil, boom }))

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load global scope descriptors")
}

func TestRegistry_Init_RetryAfterSourceError(t *testing.T) {
	t.Parallel()

	fail := true
	src := scope.DescriptorSourceFunc(func() ([]scope.Descriptor, error) {
		if fail {
			return nil, errors.New("not mounted yet")
		}
		return []scope.Descriptor{{Name: "core"}}, nil
	})

	r := scope.NewRegistry()
	require.Error(t, r.Init(src))
	assert.False(t, r.Initialized())

	fail = false
	require.NoError(t, r.Init(src))
	assert.True(t, r.Initialized())
	require.Len(t, r.Globals(), 1)
	assert.Equal(t, "core", r.Globals()[0].Name())
}

func TestRegistry_Init_NoRetryAfterInstallerError(t *testing.T) {
	t.Parallel()

	calls := 0
	src := scope.DescriptorSourceFunc(func() ([]scope.Descriptor, error) {
		calls++
		return []scope.Descriptor{{
			Name:      "bad",
			Installer: scope.InstallerFunc(func(*scope.Scope) error { return errors.New("boom") }),
		}}, nil
	})

	r := scope.NewRegistry()
	require.Error(t, r.Init(src))
	require.NoError(t, r.Init(src))
	assert.Equal(t, 1, calls)
	assert.True(t, r.Initialized())
}

func TestRegistry_AddGlobal_AndClear(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	r := scope.NewRegistry(scope.WithRegistryLogger(zap.New(core)))
	g1, g2 := scope.NewGlobal("g1"), scope.NewGlobal("g2")
	require.NoError(t, scope.Bind(g1, 1))

	r.AddGlobal(g1)
	r.AddGlobal(g2)
	r.AddGlobal(nil)
	assert.Equal(t, []*scope.Scope{g1, g2}, r.Globals())

	r.ClearGlobal()

	assert.Empty(t, r.Globals())
	assert.True(t, g1.Destroyed())
	assert.True(t, g2.Destroyed())
	assert.Equal(t, 0, g1.Len())

	assert.Equal(t, 2, logs.FilterMessage("added global scope").Len())
	cleared := logs.FilterMessage("removed all global scopes").All()
	require.Len(t, cleared, 1)
	assert.Equal(t, []any{"g1", "g2"}, cleared[0].ContextMap()["scopes"])
}
