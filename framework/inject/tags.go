package inject

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/km-arc/scribe/framework/container"
)

// TagName is the struct tag read when a target has no Manifest.
//
//	type Player struct {
//	    Clock Clock  `inject:""`
//	    Music *Track `inject:"menu,optional"`
//	    Debug bool   `inject:"-"`
//	}
const TagName = "inject"

// field is a tagged struct field, cached per struct type.
type field struct {
	name     string
	index    []int
	key      container.Key
	optional bool
}

var fieldCache sync.Map // reflect.Type → []field

// tagPoints builds points from the tagged fields of a pointer to struct.
func tagPoints(target any) ([]Point, error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("inject: target must be a non-nil pointer to struct, got %T", target)
	}
	elem := rv.Elem()

	fields, err := fieldsOf(elem.Type())
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0, len(fields))
	for _, f := range fields {
		f := f // per-iteration copy; go directive is below 1.22
		fv, err := elem.FieldByIndexErr(f.index)
		if err != nil {
			return nil, fmt.Errorf("inject: %s: %w", f.name, err)
		}
		points = append(points, Point{
			Name:     f.name,
			Key:      f.key,
			Optional: f.optional,
			Set: func(v any) error {
				if v == nil {
					fv.Set(reflect.Zero(fv.Type()))
					return nil
				}
				val := reflect.ValueOf(v)
				if !val.IsValid() || !val.Type().AssignableTo(fv.Type()) {
					return fmt.Errorf("inject: %s: cannot assign %T to %s", f.name, v, fv.Type())
				}
				fv.Set(val)
				return nil
			},
		})
	}
	return points, nil
}

func fieldsOf(t reflect.Type) ([]field, error) {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field), nil
	}

	var fields []field
	for _, sf := range reflect.VisibleFields(t) {
		tag, ok := sf.Tag.Lookup(TagName)
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("inject: %s.%s is tagged but unexported", t, sf.Name)
		}
		id, opts, _ := strings.Cut(tag, ",")
		optional := false
		for _, o := range strings.Split(opts, ",") {
			switch strings.TrimSpace(o) {
			case "":
			case "optional":
				optional = true
			default:
				return nil, fmt.Errorf("inject: %s.%s: unknown tag option %q", t, sf.Name, o)
			}
		}
		fields = append(fields, field{
			name:     sf.Name,
			index:    sf.Index,
			key:      container.TypeKey(sf.Type).WithID(strings.TrimSpace(id)),
			optional: optional,
		})
	}

	fieldCache.Store(t, fields)
	return fields, nil
}
