package container

import (
	"errors"
	"fmt"
	"reflect"
)

// Host supplies the creation and destruction primitives used to materialize
// template bindings.
type Host interface {
	// Instantiate creates a live object from a template.
	Instantiate(template any) (any, error)

	// Destroy releases an object created by Instantiate.
	Destroy(obj any)
}

// HostFuncs adapts a pair of functions to Host. A nil DestroyFunc falls back
// to the plain host behaviour.
type HostFuncs struct {
	InstantiateFunc func(template any) (any, error)
	DestroyFunc     func(obj any)
}

func (h HostFuncs) Instantiate(template any) (any, error) {
	if h.InstantiateFunc == nil {
		return PlainHost.Instantiate(template)
	}
	return h.InstantiateFunc(template)
}

func (h HostFuncs) Destroy(obj any) {
	if h.DestroyFunc == nil {
		PlainHost.Destroy(obj)
		return
	}
	h.DestroyFunc(obj)
}

// Template is implemented by blueprints that know how to build themselves.
type Template interface {
	Instantiate() (any, error)
}

// Destroyer is implemented by objects that release resources on Destroy.
type Destroyer interface {
	Destroy()
}

// Destroyable is implemented by objects that can outlive their usefulness.
// A destroyed value is treated like nil: it cannot be bound.
type Destroyable interface {
	Destroyed() bool
}

// Composite is implemented by instantiated objects that carry components
// and child objects. Templates materialize by searching this tree.
type Composite interface {
	Components() []any
	Children() []any
}

// PlainHost creates objects through Template (or a func() any blueprint)
// and destroys them through Destroyer.
var PlainHost Host = plainHost{}

var errNotATemplate = errors.New("container: value is not a template")

type plainHost struct{}

func (plainHost) Instantiate(template any) (any, error) {
	switch t := template.(type) {
	case Template:
		return t.Instantiate()
	case func() any:
		return t(), nil
	default:
		return nil, fmt.Errorf("%w: %T", errNotATemplate, template)
	}
}

func (plainHost) Destroy(obj any) {
	if d, ok := obj.(Destroyer); ok {
		d.Destroy()
	}
}

// IsNil reports whether v is nil, a typed nil, or a destroyed object.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	if d, ok := v.(Destroyable); ok && d.Destroyed() {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// FindComponent searches obj depth first, root included, for the first
// value assignable to t.
func FindComponent(obj any, t reflect.Type) (any, bool) {
	if IsNil(obj) || t == nil {
		return nil, false
	}
	if reflect.TypeOf(obj).AssignableTo(t) {
		return obj, true
	}
	c, ok := obj.(Composite)
	if !ok {
		return nil, false
	}
	for _, comp := range c.Components() {
		if !IsNil(comp) && reflect.TypeOf(comp).AssignableTo(t) {
			return comp, true
		}
	}
	for _, child := range c.Children() {
		if found, ok := FindComponent(child, t); ok {
			return found, true
		}
	}
	return nil, false
}

// sameValue compares with == when the dynamic types allow it, falling back
// to deep equality for maps, slices and similar.
func sameValue(a, b any) (equal bool) {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	// structs holding interface fields are comparable but may still panic
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
