// Package resolver computes the ordered scope chain for a node of the host
// hierarchy and looks keys up along it.
//
// The chain for a node is:
//
//  1. local scopes found walking up from the node (node included),
//     innermost first;
//  2. session scopes registered for the node's session, in registration order;
//  3. global scopes, in registration order.
//
// The first scope that yields a value wins, so a leaf can override what an
// ancestor, its session or the process provides.
package resolver

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/scope"
)

// Node is an opaque element of the host hierarchy.
type Node = any

// Hierarchy is the view of the host object tree the resolver needs. The
// resolver only queries it.
type Hierarchy interface {
	// LocalScope returns the scope node itself carries, if any.
	LocalScope(n Node) (*scope.Scope, bool)

	// Parent returns the parent of n, or false at the root.
	Parent(n Node) (Node, bool)

	// SessionOf returns the session n currently belongs to.
	SessionOf(n Node) scope.SessionID
}

// Resolver builds scope chains from a registry and a hierarchy.
type Resolver struct {
	registry  *scope.Registry
	hierarchy Hierarchy
	logger    *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for required resolution failures.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a resolver. A nil hierarchy means every node is a root with
// no local scope and an empty session id.
func New(registry *scope.Registry, hierarchy Hierarchy, opts ...Option) *Resolver {
	if hierarchy == nil {
		hierarchy = flat{}
	}
	r := &Resolver{registry: registry, hierarchy: hierarchy, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver reads from.
func (r *Resolver) Registry() *scope.Registry { return r.registry }

// ScopeChain returns the ordered scopes that apply to n.
func (r *Resolver) ScopeChain(n Node) Chain {
	var chain Chain

	cur, ok := n, n != nil
	for ok {
		owner, s, found := r.nearestLocal(cur)
		if !found {
			break
		}
		chain = append(chain, s)
		cur, ok = r.hierarchy.Parent(owner)
	}

	if r.registry != nil {
		if n != nil {
			chain = append(chain, r.registry.Sessions(r.hierarchy.SessionOf(n))...)
		}
		chain = append(chain, r.registry.Globals()...)
	}
	return chain
}

// nearestLocal walks up from n (inclusive) to the first node carrying a
// local scope.
func (r *Resolver) nearestLocal(n Node) (Node, *scope.Scope, bool) {
	for cur, ok := n, true; ok; cur, ok = r.hierarchy.Parent(cur) {
		if s, has := r.hierarchy.LocalScope(cur); has && s != nil {
			return cur, s, true
		}
	}
	return nil, nil, false
}

// Resolve looks key up in the chain of n.
func (r *Resolver) Resolve(n Node, key container.Key) (any, bool) {
	return r.ScopeChain(n).Resolve(key)
}

// Require is Resolve for a dependency that must exist. A miss is logged at
// error level and returned as a *container.ResolutionError.
func (r *Resolver) Require(n Node, key container.Key) (any, error) {
	if v, ok := r.Resolve(n, key); ok {
		return v, nil
	}
	err := &container.ResolutionError{Key: key, Requester: Describe(n)}
	r.logger.Error("failed to resolve required dependency",
		zap.Stringer("key", key.Unqualified()),
		zap.String("id", key.ID),
		zap.String("requester", err.Requester),
	)
	return nil, err
}

// ── Chain ─────────────────────────────────────────────────────────────────────

// Chain is an ordered list of scopes, closest first.
type Chain []*scope.Scope

// Resolve returns the value of the first scope that has key bound and can
// produce it. A template that fails to materialize does not stop the walk.
func (c Chain) Resolve(key container.Key) (any, bool) {
	for _, s := range c {
		if s == nil || !s.IsBound(key) {
			continue
		}
		if v, ok := s.Get(key); ok {
			return v, true
		}
	}
	return nil, false
}

// ResolveByID is Resolve for key qualified by id.
func (c Chain) ResolveByID(key container.Key, id string) (any, bool) {
	return c.Resolve(key.WithID(id))
}

// Resolve is the package-level form of Chain.Resolve.
func Resolve(chain Chain, key container.Key) (any, bool) { return chain.Resolve(key) }

// ResolveByID is the package-level form of Chain.ResolveByID.
func ResolveByID(chain Chain, key container.Key, id string) (any, bool) {
	return chain.ResolveByID(key, id)
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Get resolves T for n. A missing binding yields the zero value and false.
//
//	clock, ok := resolver.Get[Clock](r, player)
func Get[T any](r *Resolver, n Node) (T, bool) {
	return container.As[T](r.Resolve(n, container.KeyOf[T]()))
}

// GetByID resolves T qualified by id for n.
func GetByID[T any](r *Resolver, n Node, id string) (T, bool) {
	return container.As[T](r.Resolve(n, container.KeyFor[T](id)))
}

// Require resolves T for n or returns a *container.ResolutionError.
//
//	clock, err := resolver.Require[Clock](r, player)
func Require[T any](r *Resolver, n Node) (T, error) {
	var zero T
	v, err := r.Require(n, container.KeyOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("resolver: %s resolved to %T", container.KeyOf[T](), v)
	}
	return typed, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Describe names n for diagnostics: its String() when it has one, its type
// otherwise.
func Describe(n Node) string {
	if n == nil {
		return "<nil>"
	}
	if s, ok := n.(fmt.Stringer); ok {
		return s.String()
	}
	return reflect.TypeOf(n).String()
}

type flat struct{}

func (flat) LocalScope(Node) (*scope.Scope, bool) { return nil, false }
func (flat) Parent(Node) (Node, bool)             { return nil, false }
func (flat) SessionOf(Node) scope.SessionID       { return "" }
