package source

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"ContentCurator/internal/domain"
)

type nopAdapter struct{ name string }

func (n nopAdapter) Name() string { return n.name }

func (n nopAdapter) Fetch(context.Context, time.Time) iter.Seq2[domain.RawCandidate, error] {
	return func(func(domain.RawCandidate, error) bool) {}
}

func TestRegistryBuild(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("nop", func(spec Spec) (Adapter, error) {
		return nopAdapter{name: spec.Name}, nil
	})

	adapters, err := reg.Build([]Spec{{Name: "a", Kind: "nop"}, {Name: "b", Kind: "nop"}})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(adapters) != 2 || adapters[0].Name() != "a" || adapters[1].Name() != "b" {
		t.Fatalf("unexpected adapters: %+v", adapters)
	}
}

func TestRegistryBuildAttachesTimeout(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("nop", func(spec Spec) (Adapter, error) {
		return nopAdapter{name: spec.Name}, nil
	})

	adapters, err := reg.Build([]Spec{{Name: "slow", Kind: "nop", Timeout: 5 * time.Second}, {Name: "plain", Kind: "nop"}})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	b, ok := adapters[0].(Budgeted)
	if !ok || b.Timeout() != 5*time.Second || adapters[0].Name() != "slow" {
		t.Fatalf("expected budgeted adapter, got %#v", adapters[0])
	}
	if _, ok := adapters[1].(Budgeted); ok {
		t.Fatalf("adapter without timeout must not be wrapped")
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if _, err := reg.Build([]Spec{{Name: "x", Kind: "missing"}}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	if err := Malformed("item %d has no title", 3); !errors.Is(err, domain.ErrMalformedCandidate) {
		t.Fatalf("Malformed does not wrap sentinel: %v", err)
	}

	up := UpstreamFailure("feed", errors.New("timeout"))
	if !errors.Is(up, domain.ErrUpstreamFetch) {
		t.Fatalf("UpstreamFailure does not wrap sentinel: %v", up)
	}
	if again := UpstreamFailure("feed", up); again != up {
		t.Fatalf("expected already-wrapped error to pass through")
	}
}

func TestSpecOption(t *testing.T) {
	t.Parallel()

	spec := Spec{Options: map[string]string{"limit": "5", "empty": ""}}
	if spec.Option("limit", "10") != "5" {
		t.Fatalf("expected configured option")
	}
	if spec.Option("empty", "d") != "d" || spec.Option("absent", "d") != "d" {
		t.Fatalf("expected default for empty/absent option")
	}
}
