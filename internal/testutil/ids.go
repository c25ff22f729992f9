package testutil

import (
	"strconv"
	"sync"
)

// SequenceGenerator produces deterministic select IDs: prefix-1,
// prefix-2, and so on.
//
// Unlike query.FixedGenerator, SequenceGenerator never runs out and can be
// reset for test reuse, so the same scenario compiled twice yields
// identical IDs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator starting at 0.
// If prefix is empty, "select" is used.
//
// The first call to Generate() returns prefix-1.
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "select"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate increments the sequence and returns the next ID.
//
// Implements query.IDGenerator.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return g.prefix + "-" + strconv.FormatInt(g.seq, 10)
}

// Current returns the last sequence number handed out, without
// incrementing.
func (g *SequenceGenerator) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset resets the sequence to 0.
//
// After Reset(), the next call to Generate() returns prefix-1.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
