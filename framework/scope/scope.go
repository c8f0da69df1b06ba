package scope

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/container"
)

// Mode tells how a scope takes part in resolution.
type Mode int

const (
	// Local scopes belong to a node of the host hierarchy and are found by
	// walking up from the requesting node.
	Local Mode = iota

	// Session scopes are registered against a session id.
	Session

	// Global scopes are process-wide and consulted last.
	Global
)

func (m Mode) String() string {
	switch m {
	case Local:
		return "local"
	case Session:
		return "session"
	case Global:
		return "global"
	}
	return "unknown"
}

// Keeper is implemented by hosts that can detach an object from session
// teardown, so it lives until explicitly destroyed.
type Keeper interface {
	KeepAlive(obj any)
}

// Scope owns exactly one binding table and delegates every operation to it.
// The three modes differ only in how the scope was constructed and
// registered.
type Scope struct {
	name      string
	mode      Mode
	bindings  *container.Container
	destroyed atomic.Bool
}

// Option configures the container behind a scope.
type Option func(*settings)

type settings struct {
	host   container.Host
	logger *zap.Logger
}

// WithHost sets the host used to materialize template bindings.
func WithHost(h container.Host) Option {
	return func(s *settings) { s.host = h }
}

// WithLogger sets the scope's logger. The scope name and mode are added as
// fields.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// NewLocal creates a scope for a node of the host hierarchy.
func NewLocal(name string, opts ...Option) *Scope {
	return newScope(name, Local, opts)
}

// NewSession creates a scope meant to be registered against a session.
func NewSession(name string, opts ...Option) *Scope {
	return newScope(name, Session, opts)
}

// NewGlobal creates a process-wide scope. Objects its templates create are
// handed to the host's KeepAlive, when the host has one.
func NewGlobal(name string, opts ...Option) *Scope {
	return newScope(name, Global, opts)
}

func newScope(name string, mode Mode, opts []Option) *Scope {
	cfg := settings{host: container.PlainHost, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.host == nil {
		cfg.host = container.PlainHost
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	host := cfg.host
	if mode == Global {
		host = persistentHost{Host: host}
	}
	return &Scope{
		name: name,
		mode: mode,
		bindings: container.New(
			container.WithHost(host),
			container.WithLogger(cfg.logger.With(
				zap.String("scope", name),
				zap.Stringer("mode", mode),
			)),
		),
	}
}

// persistentHost marks everything it instantiates as surviving session
// transitions.
type persistentHost struct {
	container.Host
}

func (h persistentHost) Instantiate(template any) (any, error) {
	obj, err := h.Host.Instantiate(template)
	if err != nil {
		return nil, err
	}
	if k, ok := h.Host.(Keeper); ok && !container.IsNil(obj) {
		k.KeepAlive(obj)
	}
	return obj, nil
}

// ── Accessors ─────────────────────────────────────────────────────────────────

func (s *Scope) Name() string   { return s.name }
func (s *Scope) Mode() Mode     { return s.mode }
func (s *Scope) String() string { return s.mode.String() + ":" + s.name }

// Destroyed reports whether Close has been called. A destroyed scope cannot
// be bound as a value.
func (s *Scope) Destroyed() bool { return s.destroyed.Load() }

// Close flushes the binding table, destroying objects materialized from its
// templates. Further use of the scope is a caller error.
func (s *Scope) Close() {
	if s.destroyed.Swap(true) {
		return
	}
	s.bindings.Flush()
}

// ── Binding table ─────────────────────────────────────────────────────────────

func (s *Scope) Bind(key container.Key, value any) error { return s.bindings.Bind(key, value) }

func (s *Scope) BindTemplate(key container.Key, blueprint any) error {
	return s.bindings.BindTemplate(key, blueprint)
}

func (s *Scope) Unbind(key container.Key)                    { s.bindings.Unbind(key) }
func (s *Scope) UnbindValue(key container.Key, expected any) { s.bindings.UnbindValue(key, expected) }
func (s *Scope) IsBound(key container.Key) bool              { return s.bindings.IsBound(key) }
func (s *Scope) Get(key container.Key) (any, bool)           { return s.bindings.Get(key) }

// Describe lists the scope's bindings.
func (s *Scope) Describe() []container.BindingInfo { return s.bindings.Describe() }

// Len returns the number of bound keys.
func (s *Scope) Len() int { return s.bindings.Len() }

// ── Generics helpers ──────────────────────────────────────────────────────────

// Bind registers value under the unqualified key of T.
func Bind[T any](s *Scope, value T) error {
	return s.Bind(container.KeyOf[T](), value)
}

// BindID registers value under T qualified by id.
func BindID[T any](s *Scope, id string, value T) error {
	return s.Bind(container.KeyFor[T](id), value)
}

// BindTemplate registers blueprint as the template for T.
func BindTemplate[T any](s *Scope, blueprint any) error {
	return s.BindTemplate(container.KeyOf[T](), blueprint)
}

// Get resolves T from this scope only.
func Get[T any](s *Scope) (T, bool) {
	return container.As[T](s.Get(container.KeyOf[T]()))
}

// GetID resolves T qualified by id from this scope only.
func GetID[T any](s *Scope, id string) (T, bool) {
	return container.As[T](s.Get(container.KeyFor[T](id)))
}
