// Package testutil holds deterministic helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates content references blob-000001, blob-000002, ...
//
// Two runs of the same scenario allocate identical references, so output
// that mentions them can be compared against golden files.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDs creates a generator whose references start with prefix.
// An empty prefix uses "blob".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "blob"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next reference.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%06d", g.prefix, g.seq)
}

// Count returns how many references have been generated.
func (g *SequentialIDs) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns the first
// reference again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
