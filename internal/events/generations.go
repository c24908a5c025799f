package events

import (
	"context"
	"sync"
)

// Generations counts conversation changes per owner. Readers fold the
// current generation into cache keys; any change bumps it.
type Generations struct {
	mu     sync.Mutex
	counts map[int64]uint64
}

// NewGenerations creates an empty counter set.
func NewGenerations() *Generations {
	return &Generations{counts: make(map[int64]uint64)}
}

// Current returns the owner's generation. Owners never seen are at zero.
func (g *Generations) Current(ownerID int64) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[ownerID]
}

// Bump advances the owner's generation and returns the new value.
func (g *Generations) Bump(ownerID int64) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counts[ownerID]++
	return g.counts[ownerID]
}

// HandleEvent implements EventHandler.
func (g *Generations) HandleEvent(_ context.Context, event *ConversationEvent) error {
	g.Bump(event.OwnerID)
	return nil
}
