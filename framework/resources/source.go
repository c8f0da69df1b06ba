package resources

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/scribe/framework/providers"
	"github.com/km-arc/scribe/framework/scope"
)

// ErrInvalidDescriptor is wrapped by every descriptor that fails to parse or
// validate.
var ErrInvalidDescriptor = errors.New("resources: invalid global scope descriptor")

// DescriptorError reports the file and fields of an invalid descriptor.
type DescriptorError struct {
	File   string
	Fields FieldErrors
	Cause  error
}

func (e *DescriptorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resources: %s: %v", e.File, e.Cause)
	}
	return fmt.Sprintf("resources: %s: %s", e.File, e.Fields)
}

func (e *DescriptorError) Is(target error) bool { return target == ErrInvalidDescriptor }

func (e *DescriptorError) Unwrap() error { return e.Cause }

// document is the YAML shape of one global scope descriptor.
type document struct {
	Name      string            `yaml:"name"`
	Installer string            `yaml:"installer"`
	Order     int               `yaml:"order"`
	Values    map[string]string `yaml:"values"`
}

var documentRules = Rules{
	"name":      "required|slug|max:64",
	"installer": "required|slug|max:64",
}

// entry is a parsed descriptor still tied to its file.
type entry struct {
	file string
	doc  document
}

// FSSource discovers global scope descriptors in one directory of an fs.FS.
//
//	src := resources.NewFSSource(os.DirFS("."), cfg.Scopes.Dir, catalog)
//	err := registry.Init(src)
type FSSource struct {
	fsys    fs.FS
	dir     string
	catalog *providers.Catalog
	logger  *zap.Logger
}

// Option configures an FSSource.
type Option func(*FSSource)

// WithLogger sets the source logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *FSSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewFSSource creates a source reading *.yaml and *.yml files from dir.
func NewFSSource(fsys fs.FS, dir string, catalog *providers.Catalog, opts ...Option) *FSSource {
	if dir == "" {
		dir = "."
	}
	if catalog == nil {
		catalog = providers.NewCatalog()
	}
	s := &FSSource{fsys: fsys, dir: dir, catalog: catalog, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAllGlobalScopeDescriptors implements scope.DescriptorSource.
//
// A missing directory yields no descriptors. Descriptors are ordered by
// their order field, then by file name. Descriptor values are bound after
// the named installer has run.
func (s *FSSource) LoadAllGlobalScopeDescriptors() ([]scope.Descriptor, error) {
	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	out := make([]scope.Descriptor, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		if prev, dup := seen[e.doc.Name]; dup {
			return nil, &DescriptorError{
				File:  e.file,
				Cause: fmt.Errorf("name %q already declared by %s", e.doc.Name, prev),
			}
		}
		seen[e.doc.Name] = e.file

		inst, ok := s.catalog.Lookup(e.doc.Installer)
		if !ok {
			return nil, &DescriptorError{
				File:  e.file,
				Cause: fmt.Errorf("unknown installer %q", e.doc.Installer),
			}
		}
		if len(e.doc.Values) > 0 {
			inst = providers.Chain(inst, providers.Values(e.doc.Values))
		}
		out = append(out, scope.Descriptor{Name: e.doc.Name, Installer: inst})
	}

	s.logger.Debug("loaded global scope descriptors",
		zap.String("dir", s.dir),
		zap.Int("count", len(out)),
	)
	return out, nil
}

func (s *FSSource) read() ([]entry, error) {
	dirEntries, err := fs.ReadDir(s.fsys, s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no global scope directory", zap.String("dir", s.dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resources: read %s: %w", s.dir, err)
	}

	var entries []entry
	for _, de := range dirEntries {
		if de.IsDir() || !isDescriptorFile(de.Name()) {
			continue
		}
		file := path.Join(s.dir, de.Name())
		doc, err := s.parse(file)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{file: file, doc: doc})
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		if c := cmp.Compare(a.doc.Order, b.doc.Order); c != 0 {
			return c
		}
		return strings.Compare(a.file, b.file)
	})
	return entries, nil
}

func (s *FSSource) parse(file string) (document, error) {
	raw, err := fs.ReadFile(s.fsys, file)
	if err != nil {
		return document{}, fmt.Errorf("resources: read %s: %w", file, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return document{}, &DescriptorError{File: file, Cause: err}
	}

	fields := Check(map[string]string{
		"name":      doc.Name,
		"installer": doc.Installer,
	}, documentRules)
	if len(fields) > 0 {
		return document{}, &DescriptorError{File: file, Fields: fields}
	}
	return doc, nil
}

func isDescriptorFile(name string) bool {
	ext := path.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
