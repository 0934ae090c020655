package registry

import (
	"sync"

	"github.com/google/uuid"
)

// RefGenerator generates the opaque external references stamped on
// audit entries and events - the transport/transaction identifier
// collaborators use to join events back to the trail.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type RefGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 references.
//
// UUIDv7 embeds a timestamp in the most significant bits, making refs
// sortable by creation time, which helps when eyeballing exported
// trails.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined references for testing.
//
// This enables deterministic test execution and golden trail comparison.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu   sync.Mutex
	refs []string
	idx  int
}

// NewFixedGenerator creates a generator that returns refs in order.
//
// Example:
//
//	gen := NewFixedGenerator("ref-1", "ref-2")
//	gen.Generate() // "ref-1"
//	gen.Generate() // "ref-2"
//	gen.Generate() // panic: all refs exhausted
func NewFixedGenerator(refs ...string) *FixedGenerator {
	return &FixedGenerator{refs: refs}
}

// Generate returns the next predetermined reference.
//
// Panics if all refs have been consumed. This is a fail-fast approach
// to catch test misconfiguration.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.refs) {
		panic("FixedGenerator: all refs exhausted")
	}
	ref := g.refs[g.idx]
	g.idx++
	return ref
}
