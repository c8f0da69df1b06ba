package container

import (
	"fmt"
	"reflect"
)

// ── Generics helpers ──────────────────────────────────────────────────────────

// Bind registers value under the unqualified key of T.
//
//	// Instead of: c.Bind(container.KeyOf[Clock](), clock)
//	// Write:      container.Bind[Clock](c, clock)
func Bind[T any](c *Container, value T) error {
	return c.Bind(KeyOf[T](), value)
}

// BindID registers value under T qualified by id.
func BindID[T any](c *Container, id string, value T) error {
	return c.Bind(KeyFor[T](id), value)
}

// BindTemplateOf registers blueprint as a template for T.
func BindTemplateOf[T any](c *Container, blueprint any) error {
	return c.BindTemplate(KeyOf[T](), blueprint)
}

// Unbind removes the unqualified binding of T.
func Unbind[T any](c *Container) {
	c.Unbind(KeyOf[T]())
}

// Get resolves T from c and type-asserts the result.
func Get[T any](c *Container) (T, bool) {
	return As[T](c.Get(KeyOf[T]()))
}

// GetID resolves T qualified by id.
func GetID[T any](c *Container, id string) (T, bool) {
	return As[T](c.Get(KeyFor[T](id)))
}

// As converts a (value, ok) lookup result to T. A value of another type
// reports false.
func As[T any](v any, ok bool) (T, bool) {
	var zero T
	if !ok || v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	if s, ok := v.(fmt.Stringer); ok && reflect.TypeOf(v).Kind() != reflect.Func {
		return reflect.TypeOf(v).String() + "(" + s.String() + ")"
	}
	return reflect.TypeOf(v).String()
}
