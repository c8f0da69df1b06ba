package inspect_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/scribe/framework/inspect"
	"github.com/km-arc/scribe/framework/scope"
)

type Mixer struct{ Bus string }

func registry(t *testing.T) *scope.Registry {
	t.Helper()
	reg := scope.NewRegistry()

	core := scope.NewGlobal("core")
	require.NoError(t, scope.BindID(core, "app.name", "scribe"))
	require.NoError(t, scope.BindTemplate[*Mixer](core, func() any { return &Mixer{} }))
	reg.AddGlobal(core)
	reg.AddGlobal(scope.NewGlobal("audio"))

	reg.RegisterSession("level-1", scope.NewSession("level-1"))
	return reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestGlobals(t *testing.T) {
	t.Parallel()

	rec := get(t, inspect.New(registry(t)).Handler(), "/scopes/global")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Data []inspect.ScopeView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data, 2)

	core := body.Data[0]
	assert.Equal(t, "core", core.Name)
	assert.Equal(t, "global", core.Mode)
	require.Len(t, core.Bindings, 2)

	// bindings are sorted by key
	assert.Equal(t, "*inspect_test.Mixer", core.Bindings[0].Type)
	assert.Equal(t, "template", core.Bindings[0].Kind)
	assert.Equal(t, "string", core.Bindings[1].Type)
	assert.Equal(t, "app.name", core.Bindings[1].ID)
	assert.Equal(t, "instance", core.Bindings[1].Kind)

	assert.Equal(t, "audio", body.Data[1].Name)
	assert.Empty(t, body.Data[1].Bindings)
}

func TestSessions(t *testing.T) {
	t.Parallel()

	h := inspect.New(registry(t)).Handler()

	rec := get(t, h, "/scopes/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []inspect.SessionView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "level-1", list.Data[0].ID)
	assert.Equal(t, "session", list.Data[0].Scopes[0].Mode)

	rec = get(t, h, "/scopes/sessions/level-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var one struct {
		Data inspect.SessionView `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&one))
	assert.Equal(t, "level-1", one.Data.ID)

	rec = get(t, h, "/scopes/sessions/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unknown session.")
}

func TestDump(t *testing.T) {
	t.Parallel()

	rec := get(t, inspect.New(registry(t)).Handler(), "/debug/dump")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "inspect.Snapshot")
	assert.Contains(t, rec.Body.String(), `"app.name"`)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	rec := get(t, inspect.New(scope.NewRegistry()).Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not found.")
}

func TestSnapshot_Empty(t *testing.T) {
	t.Parallel()

	snap := inspect.New(scope.NewRegistry()).Snapshot()
	assert.Empty(t, snap.Globals)
	assert.Empty(t, snap.Sessions)
}
