package container

import (
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// template holds a blueprint that is materialized on first Get.
type template struct {
	blueprint any
}

// BindingKind tells instance bindings from template bindings.
type BindingKind string

const (
	KindInstance BindingKind = "instance"
	KindTemplate BindingKind = "template"
)

// BindingInfo describes one entry of the table (for inspection).
type BindingInfo struct {
	Key   Key
	Kind  BindingKind
	Value string
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the binding table owned by a single scope.
//
// It maps a Key to either a concrete instance or a template. Templates are
// materialized through the container's Host on first Get, the first component
// assignable to the key's type is located in the created object, and the
// result is memoized as an instance. The template is kept so a memoized
// instance that later gets destroyed is rebuilt on the next Get.
//
// Rules:
//   - last bind wins: binding a bound key replaces the previous binding
//   - nil or destroyed values are rejected (logged, ErrBindRejected)
//   - unbinding an absent key, or with a value that does not match, is a no-op
type Container struct {
	mu sync.RWMutex

	// key → live instance
	instances map[Key]any

	// key → blueprint
	templates map[Key]*template

	// objects this container materialized, destroyed by Flush
	owned []any

	host   Host
	logger *zap.Logger
}

// Option configures a Container.
type Option func(*Container)

// WithHost sets the instantiation strategy used for templates.
func WithHost(h Host) Option {
	return func(c *Container) {
		if h != nil {
			c.host = h
		}
	}
}

// WithLogger sets the logger used for rejected binds and failed templates.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty container backed by PlainHost.
func New(opts ...Option) *Container {
	c := &Container{
		instances: make(map[Key]any),
		templates: make(map[Key]*template),
		host:      PlainHost,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers value under key, replacing any previous binding.
//
//	c.Bind(container.KeyOf[Clock](), realClock)
//	c.Bind(container.KeyFor[string]("greeting"), "hello")
func (c *Container) Bind(key Key, value any) error {
	if IsNil(value) {
		return c.reject(key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.templates, key)
	c.instances[key] = value
	return nil
}

// BindTemplate registers a blueprint under key. Nothing is instantiated
// until the first Get.
//
//	c.BindTemplate(container.KeyOf[*Camera](), cameraPrefab)
func (c *Container) BindTemplate(key Key, blueprint any) error {
	if IsNil(blueprint) {
		return c.reject(key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, key)
	c.templates[key] = &template{blueprint: blueprint}
	return nil
}

func (c *Container) reject(key Key) error {
	err := &BindError{Key: key, Reason: "value is nil, use Unbind to remove a binding"}
	c.logger.Warn("bind rejected",
		zap.Stringer("key", key),
		zap.Error(err),
	)
	return err
}

// Unbind removes whatever is bound under key. Absent keys are ignored.
func (c *Container) Unbind(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, key)
	delete(c.templates, key)
}

// UnbindValue removes the binding under key only when the bound instance
// equals expected.
func (c *Container) UnbindValue(key Key, expected any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.instances[key]
	if !ok || !sameValue(inst, expected) {
		return
	}
	delete(c.instances, key)
	delete(c.templates, key)
}

// ── Resolution ────────────────────────────────────────────────────────────────

// IsBound reports whether key has an instance or a template binding.
func (c *Container) IsBound(key Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, hasInstance := c.instances[key]
	_, hasTemplate := c.templates[key]
	return hasInstance || hasTemplate
}

// Get returns the value bound under key.
//
// Instance bindings win. Otherwise a template is materialized; when the
// created object carries nothing assignable to the key's type it is destroyed
// and Get reports false.
func (c *Container) Get(key Key) (any, bool) {
	c.mu.RLock()
	inst, hasInstance := c.instances[key]
	tpl := c.templates[key]
	c.mu.RUnlock()

	if hasInstance {
		if !IsNil(inst) {
			return inst, true
		}
		c.prune(key, inst)
	}
	if tpl == nil {
		return nil, false
	}

	value, err := c.materialize(key, tpl)
	if err != nil {
		c.logger.Debug("template not materialized",
			zap.Stringer("key", key),
			zap.Error(err),
		)
		return nil, false
	}
	return value, true
}

// prune drops an instance that was destroyed after it was bound.
func (c *Container) prune(key Key, dead any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.instances[key]; ok && sameValue(cur, dead) {
		delete(c.instances, key)
	}
}

// materialize runs the host without holding the lock, so hosts may resolve
// from this container while building.
func (c *Container) materialize(key Key, tpl *template) (any, error) {
	obj, err := c.host.Instantiate(tpl.blueprint)
	if err != nil {
		return nil, &MaterializationError{Key: key, Cause: err}
	}

	found, ok := FindComponent(obj, key.Type)
	if !ok {
		if !IsNil(obj) {
			c.host.Destroy(obj)
		}
		return nil, &MaterializationError{Key: key}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.templates[key] != tpl {
		// rebound while the host was building; hand out the value unmemoized
		c.owned = append(c.owned, obj)
		return found, nil
	}
	c.instances[key] = found
	c.owned = append(c.owned, obj)
	return found, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Len returns the number of bound keys.
func (c *Container) Len() int {
	return len(c.Keys())
}

// Keys returns every bound key, sorted by their string form.
func (c *Container) Keys() []Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Key, 0, len(c.instances)+len(c.templates))
	for k := range c.instances {
		out = append(out, k)
	}
	for k := range c.templates {
		if _, already := c.instances[k]; !already {
			out = append(out, k)
		}
	}
	slices.SortFunc(out, func(a, b Key) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}

// Describe returns one BindingInfo per bound key (for debugging).
func (c *Container) Describe() []BindingInfo {
	keys := c.Keys()

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BindingInfo, 0, len(keys))
	for _, k := range keys {
		if inst, ok := c.instances[k]; ok {
			out = append(out, BindingInfo{Key: k, Kind: KindInstance, Value: typeName(inst)})
			continue
		}
		if tpl, ok := c.templates[k]; ok {
			out = append(out, BindingInfo{Key: k, Kind: KindTemplate, Value: typeName(tpl.blueprint)})
		}
	}
	return out
}

// Flush drops every binding and destroys the objects this container
// materialized from templates.
func (c *Container) Flush() {
	c.mu.Lock()
	owned := c.owned
	c.instances = make(map[Key]any)
	c.templates = make(map[Key]*template)
	c.owned = nil
	c.mu.Unlock()

	for _, obj := range owned {
		if !IsNil(obj) {
			c.host.Destroy(obj)
		}
	}
}
