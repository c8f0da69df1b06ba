package scope

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/container"
)

// SessionID identifies a session (a loaded scene, a connection, ...).
type SessionID string

// ── Registration hooks ────────────────────────────────────────────────────────

// Installer binds services into a freshly created global scope. It is the
// registration hook run by Registry.Init for every discovered descriptor.
type Installer interface {
	Install(s *Scope) error
}

// InstallerFunc adapts a function to Installer.
type InstallerFunc func(s *Scope) error

func (f InstallerFunc) Install(s *Scope) error { return f(s) }

// Descriptor names one global scope found in the resource namespace.
type Descriptor struct {
	Name      string
	Installer Installer
}

// DescriptorSource enumerates the global scope descriptors of the process.
type DescriptorSource interface {
	LoadAllGlobalScopeDescriptors() ([]Descriptor, error)
}

// DescriptorSourceFunc adapts a function to DescriptorSource.
type DescriptorSourceFunc func() ([]Descriptor, error)

func (f DescriptorSourceFunc) LoadAllGlobalScopeDescriptors() ([]Descriptor, error) { return f() }

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry stores the session and global scopes of a process.
//
// Session scopes are kept per session id in insertion order. Global scopes
// form one list in insertion order. Nothing is removed implicitly: only
// UnregisterSession and ClearGlobal shrink the registry.
type Registry struct {
	mu sync.RWMutex

	// session → scopes, insertion order
	sessions map[SessionID][]*Scope

	// insertion order
	globals []*Scope

	initialized bool
	active      func() bool
	host        container.Host
	logger      *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithActiveCheck sets the predicate Init consults before discovering
// global scopes. The default always reports true.
func WithActiveCheck(fn func() bool) RegistryOption {
	return func(r *Registry) {
		if fn != nil {
			r.active = fn
		}
	}
}

// WithGlobalHost sets the host handed to global scopes built by Init.
func WithGlobalHost(h container.Host) RegistryOption {
	return func(r *Registry) {
		if h != nil {
			r.host = h
		}
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[SessionID][]*Scope),
		active:   func() bool { return true },
		host:     container.PlainHost,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ── Session scopes ────────────────────────────────────────────────────────────

// RegisterSession appends s to the scopes of session id.
func (r *Registry) RegisterSession(id SessionID, s *Scope) {
	if s == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = append(r.sessions[id], s)
	r.logger.Debug("registered session scope",
		zap.String("session", string(id)),
		zap.Stringer("scope", s),
	)
}

// UnregisterSession removes s from session id. Unknown sessions or scopes
// are ignored.
func (r *Registry) UnregisterSession(id SessionID, s *Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, ok := r.sessions[id]
	if !ok {
		return
	}
	i := slices.Index(list, s)
	if i < 0 {
		return
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(r.sessions, id)
	} else {
		r.sessions[id] = list
	}
	r.logger.Debug("unregistered session scope",
		zap.String("session", string(id)),
		zap.Stringer("scope", s),
	)
}

// Sessions returns a copy of the scopes registered for id.
func (r *Registry) Sessions(id SessionID) []*Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.sessions[id])
}

// SessionIDs returns every session with at least one scope, sorted.
func (r *Registry) SessionIDs() []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]SessionID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ── Global scopes ─────────────────────────────────────────────────────────────

// Init discovers the global scopes of the process. It runs at most once and
// only while the active check reports true. For each descriptor a global
// scope is created, its installer is run, and the scope is appended to the
// global list. A source error leaves the registry uninitialized so Init can
// be retried. An installer error stops Init and marks it done; scopes added
// before it stay.
func (r *Registry) Init(src DescriptorSource) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return nil
	}
	if !r.active() {
		r.mu.Unlock()
		r.logger.Debug("process not active, skipping global scope discovery")
		return nil
	}
	r.initialized = true
	r.mu.Unlock()

	if src == nil {
		return nil
	}
	descriptors, err := src.LoadAllGlobalScopeDescriptors()
	if err != nil {
		r.mu.Lock()
		r.initialized = false
		r.mu.Unlock()
		return fmt.Errorf("load global scope descriptors: %w", err)
	}

	for _, d := range descriptors {
		s := NewGlobal(d.Name, WithHost(r.host), WithLogger(r.logger))
		if d.Installer != nil {
			if err := d.Installer.Install(s); err != nil {
				s.Close()
				return fmt.Errorf("register global scope %q: %w", d.Name, err)
			}
		}
		r.AddGlobal(s)
	}
	return nil
}

// Initialized reports whether Init has run.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// AddGlobal appends s to the global scopes.
func (r *Registry) AddGlobal(s *Scope) {
	if s == nil {
		return
	}
	r.mu.Lock()
	r.globals = append(r.globals, s)
	r.mu.Unlock()
	r.logger.Info("added global scope", zap.Stringer("scope", s))
}

// Globals returns a copy of the global scopes in insertion order.
func (r *Registry) Globals() []*Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.globals)
}

// ClearGlobal closes every global scope and empties the list. Scopes
// obtained before the call must not be used afterwards.
func (r *Registry) ClearGlobal() {
	r.mu.Lock()
	cleared := r.globals
	r.globals = nil
	r.mu.Unlock()

	names := make([]string, 0, len(cleared))
	for _, s := range cleared {
		names = append(names, s.Name())
		s.Close()
	}
	r.logger.Info("removed all global scopes", zap.Strings("scopes", names))
}
