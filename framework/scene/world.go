package scene

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/resolver"
	"github.com/km-arc/scribe/framework/scope"
)

// PersistentSession is the session id of the scene holding objects that
// survive scene unloads.
const PersistentSession scope.SessionID = "persistent"

// World owns the loaded scenes. It is the host environment of the resolver:
// it answers hierarchy queries and creates/destroys objects for templates.
type World struct {
	mu         sync.RWMutex
	scenes     map[scope.SessionID]*Scene
	active     *Scene
	persistent *Scene
	logger     *zap.Logger
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the world logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *World) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorld creates a world holding only the persistent scene.
func NewWorld(opts ...Option) *World {
	w := &World{
		scenes: make(map[scope.SessionID]*Scene),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.persistent = &Scene{id: PersistentSession, name: "persistent", world: w}
	w.scenes[PersistentSession] = w.persistent
	return w
}

// ── Scenes ────────────────────────────────────────────────────────────────────

// LoadScene creates an empty scene with a fresh session id. The first scene
// loaded becomes the active one.
func (w *World) LoadScene(name string) *Scene {
	s := &Scene{id: scope.SessionID(uuid.NewString()), name: name, world: w}

	w.mu.Lock()
	w.scenes[s.id] = s
	if w.active == nil {
		w.active = s
	}
	w.mu.Unlock()

	w.logger.Debug("scene loaded", zap.String("scene", name), zap.String("session", string(s.id)))
	return s
}

// UnloadScene destroys every object of the scene. The persistent scene
// cannot be unloaded.
func (w *World) UnloadScene(id scope.SessionID) error {
	if id == PersistentSession {
		return fmt.Errorf("scene: the persistent scene cannot be unloaded")
	}

	w.mu.Lock()
	s, ok := w.scenes[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("scene: unknown session %q", id)
	}
	delete(w.scenes, id)
	if w.active == s {
		w.active = nil
	}
	w.mu.Unlock()

	for _, root := range s.Roots() {
		root.Destroy()
	}
	w.logger.Debug("scene unloaded", zap.String("scene", s.name), zap.String("session", string(id)))
	return nil
}

// SetActive makes s the scene new objects are created in.
func (w *World) SetActive(s *Scene) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = s
}

// Active returns the active scene, or the persistent one when none is.
func (w *World) Active() *Scene {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.active == nil {
		return w.persistent
	}
	return w.active
}

// Persistent returns the scene whose objects survive unloads.
func (w *World) Persistent() *Scene { return w.persistent }

// Scene returns the loaded scene with the given session id.
func (w *World) Scene(id scope.SessionID) (*Scene, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.scenes[id]
	return s, ok
}

// ── resolver.Hierarchy ────────────────────────────────────────────────────────

var _ resolver.Hierarchy = (*World)(nil)

// LocalScope returns the scope attached to an object. Components never
// carry a scope themselves; the walk reaches their object through Parent.
func (w *World) LocalScope(n resolver.Node) (*scope.Scope, bool) {
	o, ok := n.(*Object)
	if !ok || o.scope == nil || o.destroyed {
		return nil, false
	}
	return o.scope, true
}

// Parent returns the parent object. A component's parent is the object
// that owns it.
func (w *World) Parent(n resolver.Node) (resolver.Node, bool) {
	o, isObject := n.(*Object)
	if !isObject {
		owner, ok := ObjectOf(n)
		if !ok {
			return nil, false
		}
		return owner, true
	}
	if o.parent == nil {
		return nil, false
	}
	return o.parent, true
}

// SessionOf returns the session id of the node's scene.
func (w *World) SessionOf(n resolver.Node) scope.SessionID {
	o, ok := ObjectOf(n)
	if !ok || o.scene == nil {
		return ""
	}
	return o.scene.id
}

// ── container.Host ────────────────────────────────────────────────────────────

var (
	_ container.Host = (*World)(nil)
	_ scope.Keeper   = (*World)(nil)
)

// Instantiate builds a *Prefab (or any container.Template) into the active
// scene.
func (w *World) Instantiate(template any) (any, error) {
	switch t := template.(type) {
	case *Prefab:
		return t.build(w.Active(), nil), nil
	default:
		return container.PlainHost.Instantiate(template)
	}
}

// Destroy destroys objects and anything else implementing Destroy().
func (w *World) Destroy(obj any) {
	container.PlainHost.Destroy(obj)
}

// KeepAlive moves the root of obj into the persistent scene.
func (w *World) KeepAlive(obj any) {
	o, ok := ObjectOf(obj)
	if !ok {
		return
	}
	for o.parent != nil {
		o = o.parent
	}
	o.moveTo(w.persistent)
}
