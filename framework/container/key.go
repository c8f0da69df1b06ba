package container

import (
	"reflect"
	"strconv"
)

// Key identifies a binding: a type plus an optional qualifier.
//
// An empty ID is an unqualified key. Keys compare by exact equality, so
// (Logger, "") and (Logger, "audit") are distinct bindings and a *File key
// never matches an io.Reader key.
type Key struct {
	Type reflect.Type
	ID   string
}

// KeyOf returns the unqualified key for T.
//
//	key := container.KeyOf[Logger]()
func KeyOf[T any]() Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem()}
}

// KeyFor returns the key for T qualified by id.
func KeyFor[T any](id string) Key {
	return Key{Type: reflect.TypeOf((*T)(nil)).Elem(), ID: id}
}

// TypeKey returns the unqualified key for t.
func TypeKey(t reflect.Type) Key {
	return Key{Type: t}
}

// WithID returns a copy of k qualified by id.
func (k Key) WithID(id string) Key {
	k.ID = id
	return k
}

// Unqualified strips the qualifier.
func (k Key) Unqualified() Key {
	k.ID = ""
	return k
}

// Qualified reports whether k carries an id.
func (k Key) Qualified() bool { return k.ID != "" }

// String renders the key as `pkg.Type` or `pkg.Type#"id"`.
func (k Key) String() string {
	name := "<nil>"
	if k.Type != nil {
		name = k.Type.String()
	}
	if k.ID == "" {
		return name
	}
	return name + "#" + strconv.Quote(k.ID)
}
