package inject

import (
	"fmt"

	"github.com/km-arc/scribe/framework/container"
)

// Point is one dependency a target wants filled.
type Point struct {
	// Name identifies the point in errors and logs, usually the field name.
	Name string

	Key      container.Key
	Optional bool

	// Set stores the resolved value into the target. A nil v stores the
	// zero value.
	Set func(v any) error
}

// Manifest is implemented by targets that list their injection points
// explicitly instead of relying on struct tags.
//
//	func (p *Player) InjectionPoints() []inject.Point {
//	    return []inject.Point{
//	        inject.Required("Clock", &p.clock),
//	        inject.Optional("Music", &p.music).WithID("menu"),
//	    }
//	}
type Manifest interface {
	InjectionPoints() []Point
}

// Required returns a point that must resolve for injection to succeed.
func Required[T any](name string, dst *T) Point {
	return point(name, dst, false)
}

// Optional returns a point that is reset to its zero value when nothing
// resolves.
func Optional[T any](name string, dst *T) Point {
	return point(name, dst, true)
}

// WithID qualifies the point's key.
func (p Point) WithID(id string) Point {
	p.Key = p.Key.WithID(id)
	return p
}

func point[T any](name string, dst *T, optional bool) Point {
	return Point{
		Name:     name,
		Key:      container.KeyOf[T](),
		Optional: optional,
		Set: func(v any) error {
			if v == nil {
				var zero T
				*dst = zero
				return nil
			}
			typed, ok := v.(T)
			if !ok {
				return fmt.Errorf("inject: %s: cannot assign %T to %s", name, v, container.KeyOf[T]())
			}
			*dst = typed
			return nil
		},
	}
}
