package providers

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/config"
	"github.com/km-arc/scribe/framework/scope"
)

// ── ConfigInstaller ───────────────────────────────────────────────────────────

// Config binds the application configuration into a scope.
//
// Bound keys:
//   - *config.Config
//   - string#"app.name", string#"app.env"
func Config(cfg *config.Config) scope.Installer {
	return scope.InstallerFunc(func(s *scope.Scope) error {
		if cfg == nil {
			return errors.New("providers: nil config")
		}
		return errors.Join(
			scope.Bind(s, cfg),
			scope.BindID(s, "app.name", cfg.App.Name),
			scope.BindID(s, "app.env", cfg.App.Env),
		)
	})
}

// ── LoggerInstaller ───────────────────────────────────────────────────────────

// Logger binds l into a scope, named after the scope.
//
// Bound keys:
//   - *zap.Logger
func Logger(l *zap.Logger) scope.Installer {
	return scope.InstallerFunc(func(s *scope.Scope) error {
		if l == nil {
			return errors.New("providers: nil logger")
		}
		return scope.Bind(s, l.Named(s.Name()))
	})
}

// ── ValuesInstaller ───────────────────────────────────────────────────────────

// Values binds every entry as a string qualified by its key.
//
//	providers.Values(map[string]string{"volume": "0.8"})
//	// → string#"volume" = "0.8"
func Values(values map[string]string) scope.Installer {
	return scope.InstallerFunc(func(s *scope.Scope) error {
		for id, v := range values {
			if id == "" {
				return fmt.Errorf("providers: empty id for value %q", v)
			}
			if err := scope.BindID(s, id, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ── Chain ─────────────────────────────────────────────────────────────────────

// Chain runs installers in order and stops at the first error.
func Chain(installers ...scope.Installer) scope.Installer {
	return scope.InstallerFunc(func(s *scope.Scope) error {
		for _, inst := range installers {
			if inst == nil {
				continue
			}
			if err := inst.Install(s); err != nil {
				return err
			}
		}
		return nil
	})
}
