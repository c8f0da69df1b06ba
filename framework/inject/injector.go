package inject

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/km-arc/scribe/framework/container"
	"github.com/km-arc/scribe/framework/resolver"
)

const tracerName = "github.com/km-arc/scribe/framework/inject"

// Injector fills the injection points of targets from the scope chain of a
// node.
type Injector struct {
	resolver *resolver.Resolver
	logger   *zap.Logger
	tracer   trace.Tracer
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger used for required misses.
func WithLogger(l *zap.Logger) Option {
	return func(i *Injector) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithTracerProvider sets the provider spans are started from. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(i *Injector) {
		if tp != nil {
			i.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates an injector resolving through r.
func New(r *resolver.Resolver, opts ...Option) *Injector {
	i := &Injector{
		resolver: r,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject resolves every injection point of target against the scope chain
// of node. A nil node means target is its own node.
//
// Points are processed in order. The first required point that does not
// resolve aborts the pass with a *container.ResolutionError; points already
// set stay set. Optional points that do not resolve are reset to their zero
// value, so a stale reference from a cleared scope does not survive a
// second pass.
func (i *Injector) Inject(ctx context.Context, node resolver.Node, target any) error {
	if node == nil {
		node = target
	}

	_, span := i.tracer.Start(ctx, "inject",
		trace.WithAttributes(attribute.String("inject.target", typeOf(target))),
	)
	defer span.End()

	points, err := pointsOf(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid target")
		return err
	}
	span.SetAttributes(attribute.Int("inject.points", len(points)))

	chain := i.resolver.ScopeChain(node)
	injected := 0
	for _, p := range points {
		if p.Set == nil {
			err := fmt.Errorf("inject: point %q has no setter", p.Name)
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid point")
			return err
		}
		v, ok := chain.Resolve(p.Key)
		if !ok {
			if p.Optional {
				if err := p.Set(nil); err != nil {
					span.RecordError(err)
					span.SetStatus(codes.Error, "assignment failed")
					return err
				}
				continue
			}
			rerr := &container.ResolutionError{
				Key:       p.Key,
				Requester: resolver.Describe(node),
				Field:     p.Name,
			}
			i.logger.Error("failed to resolve required dependency",
				zap.Stringer("key", p.Key.Unqualified()),
				zap.String("id", p.Key.ID),
				zap.String("requester", rerr.Requester),
				zap.String("field", p.Name),
			)
			span.RecordError(rerr)
			span.SetStatus(codes.Error, "unresolved dependency")
			return rerr
		}
		if err := p.Set(v); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "assignment failed")
			return err
		}
		injected++
	}

	span.SetAttributes(attribute.Int("inject.resolved", injected))
	return nil
}

// InjectAll runs Inject for each target with the same node, stopping at the
// first error.
func (i *Injector) InjectAll(ctx context.Context, node resolver.Node, targets ...any) error {
	for _, t := range targets {
		if err := i.Inject(ctx, node, t); err != nil {
			return err
		}
	}
	return nil
}

func pointsOf(target any) ([]Point, error) {
	if target == nil {
		return nil, errors.New("inject: nil target")
	}
	if m, ok := target.(Manifest); ok {
		return m.InjectionPoints(), nil
	}
	return tagPoints(target)
}

func typeOf(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
