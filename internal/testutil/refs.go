package testutil

import (
	"fmt"
	"sync"
)

// SeqRefGenerator generates external references "ref-000001",
// "ref-000002", ... in order.
//
// Unlike registry.FixedGenerator, which needs every ref listed up
// front and panics when exhausted, this generator never runs out.
// Use it for scenarios where the number of operations is not fixed.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SeqRefGenerator struct {
	mu sync.Mutex
	n  int64
}

// NewSeqRefGenerator creates a generator starting at ref-000001.
func NewSeqRefGenerator() *SeqRefGenerator {
	return &SeqRefGenerator{}
}

// Generate returns the next sequential reference.
func (g *SeqRefGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ref-%06d", g.n)
}

// Reset restarts the sequence at ref-000001.
func (g *SeqRefGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
