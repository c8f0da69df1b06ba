package providers

import (
	"fmt"
	"slices"
	"sync"

	"github.com/km-arc/scribe/framework/scope"
)

// Catalog maps installer names, as referenced by global scope descriptors,
// to installers.
//
//	cat := providers.NewCatalog()
//	cat.Register("core", providers.Chain(providers.Config(cfg), providers.Logger(log)))
//	inst, ok := cat.Lookup("core")
type Catalog struct {
	mu         sync.RWMutex
	installers map[string]scope.Installer
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{installers: make(map[string]scope.Installer)}
}

// Register adds an installer under name. Names are unique.
func (c *Catalog) Register(name string, inst scope.Installer) error {
	if name == "" || inst == nil {
		return fmt.Errorf("providers: installer %q: name and installer are required", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.installers[name]; exists {
		return fmt.Errorf("providers: installer %q already registered", name)
	}
	c.installers[name] = inst
	return nil
}

// MustRegister is Register for composition roots; it panics on error.
func (c *Catalog) MustRegister(name string, inst scope.Installer) *Catalog {
	if err := c.Register(name, inst); err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the installer registered under name.
func (c *Catalog) Lookup(name string) (scope.Installer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.installers[name]
	return inst, ok
}

// Names returns the registered names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.installers))
	for n := range c.installers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
