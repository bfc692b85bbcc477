package source

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"time"

	"ContentCurator/internal/domain"
)

// Spec describes one configured upstream provider.
type Spec struct {
	Name     string
	Kind     string
	URL      string
	Category string
	Timeout  time.Duration
	Options  map[string]string
}

// Option returns an option value or def when unset.
func (s Spec) Option(key, def string) string {
	if v, ok := s.Options[key]; ok && v != "" {
		return v
	}
	return def
}

// Adapter produces candidates from one upstream provider.
//
// Fetch returns a finite, lazy sequence. A pair with an error wrapping
// domain.ErrMalformedCandidate reports one skipped item and the sequence goes on;
// an error wrapping domain.ErrUpstreamFetch is always the last pair of the sequence.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, since time.Time) iter.Seq2[domain.RawCandidate, error]
}

// Budgeted is implemented by adapters that carry their own fetch time budget.
type Budgeted interface {
	Timeout() time.Duration
}

type budgeted struct {
	Adapter
	timeout time.Duration
}

func (b budgeted) Timeout() time.Duration { return b.timeout }

// WithTimeout attaches a fetch budget to a; d <= 0 returns a unchanged.
func WithTimeout(a Adapter, d time.Duration) Adapter {
	if d <= 0 {
		return a
	}
	return budgeted{Adapter: a, timeout: d}
}

// Factory builds an adapter for a configured provider.
type Factory func(spec Spec) (Adapter, error)

// Registry keeps a mapping from adapter kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Resolve returns the factory of kind or an error if it is absent.
func (r *Registry) Resolve(kind string) (Factory, error) {
	if f, ok := r.factories[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("adapter kind %s is not registered", kind)
}

// Kinds lists registered kinds in lexical order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Build instantiates one adapter per spec, in spec order.
func (r *Registry) Build(specs []Spec) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(specs))
	for _, spec := range specs {
		factory, err := r.Resolve(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}
		adapter, err := factory(spec)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", spec.Name, err)
		}
		adapters = append(adapters, WithTimeout(adapter, spec.Timeout))
	}
	return adapters, nil
}

// Malformed wraps a per-item problem as domain.ErrMalformedCandidate.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrMalformedCandidate, fmt.Sprintf(format, args...))
}

// UpstreamFailure wraps err as domain.ErrUpstreamFetch unless it already is one.
func UpstreamFailure(source string, err error) error {
	if errors.Is(err, domain.ErrUpstreamFetch) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstreamFetch, source, err)
}
