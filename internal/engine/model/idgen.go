package model

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator hands out fresh block ids.
type IDGenerator interface {
	NewID() BlockID
}

// UUIDGenerator generates random UUID-based block ids.
type UUIDGenerator struct{}

// NewID returns a new random id.
func (UUIDGenerator) NewID() BlockID {
	return BlockID(uuid.NewString())
}

// SequentialGenerator hands out predictable ids ("b1", "b2", ...).
// It is safe for concurrent use.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequentialGenerator creates a generator whose ids start at prefix+"1".
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix, next: 1}
}

// NewID returns the next id in sequence.
func (g *SequentialGenerator) NewID() BlockID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := BlockID(fmt.Sprintf("%s%d", g.prefix, g.next))
	g.next++
	return id
}
