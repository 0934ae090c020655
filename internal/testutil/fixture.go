package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
	"github.com/caduceon/acteledger/internal/store"
)

// OpenStore creates a store in a per-test temp directory and closes it
// when the test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

// NewRegistry builds a deterministic registry over a fresh store:
// stepping wall clock, sequential refs, plus any extra options.
func NewRegistry(t *testing.T, opts ...registry.Option) *registry.Registry {
	t.Helper()

	s := OpenStore(t)
	base := []registry.Option{
		registry.WithNow(DefaultWallClock().Now),
		registry.WithRefGenerator(NewSeqRefGenerator()),
	}
	reg, err := registry.New(context.Background(), s, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	return reg
}

// Bootstrap grants the principal every capability, failing the test on
// error. Most scenarios start with one fully privileged operator.
func Bootstrap(t *testing.T, reg *registry.Registry, principal record.Principal) {
	t.Helper()

	if err := reg.Bootstrap(context.Background(), principal); err != nil {
		t.Fatalf("bootstrap %s: %v", principal, err)
	}
}
