// Package inspect serves a read-only JSON view of a scope registry.
//
//	GET /scopes/global          global scopes in resolution order
//	GET /scopes/sessions        every session with its scopes
//	GET /scopes/sessions/{id}   the scopes of one session
//	GET /debug/dump             spew dump of the whole registry
package inspect

import (
	"io"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/container"
	gohttp "github.com/km-arc/scribe/framework/http"
	"github.com/km-arc/scribe/framework/routing"
	"github.com/km-arc/scribe/framework/scope"
)

// BindingView is the JSON form of one binding.
type BindingView struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// ScopeView is the JSON form of one scope.
type ScopeView struct {
	Name     string        `json:"name"`
	Mode     string        `json:"mode"`
	Bindings []BindingView `json:"bindings"`
}

// SessionView is the JSON form of one session.
type SessionView struct {
	ID     string      `json:"id"`
	Scopes []ScopeView `json:"scopes"`
}

// Snapshot is everything the inspector knows at one instant.
type Snapshot struct {
	Globals  []ScopeView   `json:"globals"`
	Sessions []SessionView `json:"sessions"`
}

// Inspector renders registry snapshots over HTTP.
type Inspector struct {
	registry *scope.Registry
	logger   *zap.Logger
	dumper   *spew.ConfigState
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger used by the request middleware.
func WithLogger(l *zap.Logger) Option {
	return func(i *Inspector) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an inspector over reg.
func New(reg *scope.Registry, opts ...Option) *Inspector {
	i := &Inspector{
		registry: reg,
		logger:   zap.NewNop(),
		dumper: &spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Handler returns a router serving every inspector route.
func (i *Inspector) Handler() http.Handler {
	r := routing.New(i.logger)
	i.Routes(r)
	return r
}

// Routes registers the inspector routes on r.
func (i *Inspector) Routes(r *routing.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).NotFound()
	})
	r.Prefix("/scopes", func(r *routing.Router) {
		r.Get("/global", i.Globals)
		r.Get("/sessions", i.Sessions)
		r.Get("/sessions/{id}", i.Session)
	})
	r.Get("/debug/dump", i.Dump)
}

// ── Handlers ─────────────────────────────────────────────────────────────────

// Globals handles GET /scopes/global.
func (i *Inspector) Globals(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(viewScopes(i.registry.Globals()))
}

// Sessions handles GET /scopes/sessions.
func (i *Inspector) Sessions(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(i.sessions())
}

// Session handles GET /scopes/sessions/{id}.
func (i *Inspector) Session(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id := scope.SessionID(routing.Param(r, "id"))
	scopes := i.registry.Sessions(id)
	if len(scopes) == 0 {
		res.NotFound("Unknown session.")
		return
	}
	res.Success(SessionView{ID: string(id), Scopes: viewScopes(scopes)})
}

// Dump handles GET /debug/dump.
func (i *Inspector) Dump(w http.ResponseWriter, _ *http.Request) {
	snap := i.Snapshot()
	gohttp.NewResponse(w).Text(http.StatusOK, func(out io.Writer) {
		i.dumper.Fdump(out, snap)
	})
}

// Snapshot captures the current registry contents.
func (i *Inspector) Snapshot() Snapshot {
	return Snapshot{
		Globals:  viewScopes(i.registry.Globals()),
		Sessions: i.sessions(),
	}
}

func (i *Inspector) sessions() []SessionView {
	ids := i.registry.SessionIDs()
	out := make([]SessionView, 0, len(ids))
	for _, id := range ids {
		out = append(out, SessionView{ID: string(id), Scopes: viewScopes(i.registry.Sessions(id))})
	}
	return out
}

// ── Views ────────────────────────────────────────────────────────────────────

func viewScopes(scopes []*scope.Scope) []ScopeView {
	out := make([]ScopeView, 0, len(scopes))
	for _, s := range scopes {
		out = append(out, ScopeView{
			Name:     s.Name(),
			Mode:     s.Mode().String(),
			Bindings: viewBindings(s.Describe()),
		})
	}
	return out
}

func viewBindings(infos []container.BindingInfo) []BindingView {
	out := make([]BindingView, 0, len(infos))
	for _, b := range infos {
		out = append(out, BindingView{
			Type:  b.Key.Unqualified().String(),
			ID:    b.Key.ID,
			Kind:  string(b.Kind),
			Value: b.Value,
		})
	}
	return out
}
