package scene

import (
	"slices"
	"strings"

	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/scope"
)

// Scene is one loaded session of the world.
type Scene struct {
	id    scope.SessionID
	name  string
	world *World
	roots []*Object
}

func (s *Scene) ID() scope.SessionID { return s.id }
func (s *Scene) Name() string        { return s.name }

// Roots returns a copy of the scene's root objects.
func (s *Scene) Roots() []*Object { return slices.Clone(s.roots) }

// NewObject creates a root object in the scene.
func (s *Scene) NewObject(name string, components ...any) *Object {
	o := &Object{name: name}
	o.moveTo(s)
	for _, c := range components {
		o.AddComponent(c)
	}
	return o
}

func (s *Scene) removeRoot(o *Object) {
	if i := slices.Index(s.roots, o); i >= 0 {
		s.roots = slices.Delete(s.roots, i, i+1)
	}
}

// ── Object ────────────────────────────────────────────────────────────────────

// Object is a node of a scene: it has a parent, children, components and
// optionally a local scope whose lifetime is tied to the object.
type Object struct {
	name       string
	scene      *Scene
	parent     *Object
	children   []*Object
	components []any
	scope      *scope.Scope
	destroyed  bool
}

var (
	_ container.Composite   = (*Object)(nil)
	_ container.Destroyer   = (*Object)(nil)
	_ container.Destroyable = (*Object)(nil)
)

func (o *Object) Name() string      { return o.name }
func (o *Object) Scene() *Scene     { return o.scene }
func (o *Object) Parent() *Object   { return o.parent }
func (o *Object) Destroyed() bool   { return o.destroyed }
func (o *Object) Components() []any { return slices.Clone(o.components) }

// Children implements container.Composite.
func (o *Object) Children() []any {
	out := make([]any, len(o.children))
	for i, c := range o.children {
		out[i] = c
	}
	return out
}

// Child returns the direct child with the given name.
func (o *Object) Child(name string) (*Object, bool) {
	for _, c := range o.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// String renders the path of the object from its root, e.g. "ui/hud/score".
func (o *Object) String() string {
	var parts []string
	for cur := o; cur != nil; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// AddChild creates a child object in the same scene.
func (o *Object) AddChild(name string, components ...any) *Object {
	child := &Object{name: name, scene: o.scene}
	child.SetParent(o)
	for _, c := range components {
		child.AddComponent(c)
	}
	return child
}

// SetParent moves o under p. A nil p makes o a root of its scene.
func (o *Object) SetParent(p *Object) {
	o.detach()
	if p == nil {
		if o.scene != nil {
			o.scene.roots = append(o.scene.roots, o)
		}
		return
	}
	o.parent = p
	p.children = append(p.children, o)
	o.setScene(p.scene)
}

// AddComponent attaches c to the object. Components embedding Behaviour
// learn their owner.
func (o *Object) AddComponent(c any) {
	if container.IsNil(c) {
		return
	}
	if b, ok := c.(owned); ok {
		b.setOwner(o)
	}
	o.components = append(o.components, c)
}

// AttachScope gives the object a local scope. The scope is closed when the
// object is destroyed.
func (o *Object) AttachScope(s *scope.Scope) { o.scope = s }

// Scope returns the local scope of the object, if any.
func (o *Object) Scope() (*scope.Scope, bool) { return o.scope, o.scope != nil }

// Destroy destroys o, its children and its local scope, and removes it from
// its parent or scene.
func (o *Object) Destroy() {
	if o.destroyed {
		return
	}
	for _, c := range slices.Clone(o.children) {
		c.Destroy()
	}
	for _, c := range o.components {
		if d, ok := c.(container.Destroyer); ok {
			d.Destroy()
		}
	}
	if o.scope != nil {
		o.scope.Close()
	}
	o.detach()
	o.destroyed = true
}

func (o *Object) detach() {
	if o.parent != nil {
		if i := slices.Index(o.parent.children, o); i >= 0 {
			o.parent.children = slices.Delete(o.parent.children, i, i+1)
		}
		o.parent = nil
		return
	}
	if o.scene != nil {
		o.scene.removeRoot(o)
	}
}

// moveTo makes o a root of s.
func (o *Object) moveTo(s *Scene) {
	o.detach()
	o.setScene(s)
	s.roots = append(s.roots, o)
}

func (o *Object) setScene(s *Scene) {
	o.scene = s
	for _, c := range o.children {
		c.setScene(s)
	}
}

// ── Components ────────────────────────────────────────────────────────────────

type owned interface {
	setOwner(o *Object)
}

// Behaviour is embedded by components that need to know their object.
//
//	type Player struct {
//	    scene.Behaviour
//	    Clock Clock `inject:""`
//	}
type Behaviour struct {
	owner *Object
}

func (b *Behaviour) setOwner(o *Object) { b.owner = o }

// Object returns the object the component is attached to.
func (b *Behaviour) Object() *Object { return b.owner }

// Destroyed reports whether the owning object was destroyed, so components
// die with their object.
func (b *Behaviour) Destroyed() bool { return b.owner != nil && b.owner.destroyed }

// ObjectOf returns the object behind a node: the node itself, or the owner
// of a component embedding Behaviour.
func ObjectOf(n any) (*Object, bool) {
	switch v := n.(type) {
	case *Object:
		return v, v != nil
	case interface{ Object() *Object }:
		o := v.Object()
		return o, o != nil
	}
	return nil, false
}
