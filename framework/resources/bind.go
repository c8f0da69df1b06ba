package resources

import (
	"bytes"
	"fmt"
	"io/fs"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/scope"
)

// BindResource decodes the YAML file at file into a new T and binds it in s
// under T qualified by id. Pointer types get a freshly allocated element.
//
//	err := resources.BindResource[*Palette](s, "", fsys, "assets/palette.yaml")
func BindResource[T any](s *scope.Scope, id string, fsys fs.FS, file string) error {
	raw, err := fs.ReadFile(fsys, file)
	if err != nil {
		return fmt.Errorf("resources: read %s: %w", file, err)
	}

	value, err := decode[T](raw)
	if err != nil {
		return fmt.Errorf("resources: decode %s: %w", file, err)
	}
	return s.Bind(container.KeyFor[T](id), value)
}

func decode[T any](raw []byte) (T, error) {
	var out T
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Pointer {
		err := dec.Decode(&out)
		return out, err
	}
	ptr := reflect.New(rt.Elem())
	if err := dec.Decode(ptr.Interface()); err != nil {
		return out, err
	}
	return ptr.Interface().(T), nil
}
