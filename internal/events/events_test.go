package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewConversationEvent(t *testing.T) {
	event := NewConversationEvent(MessageAppended, 7, 42)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, MessageAppended, event.Type)
	assert.Equal(t, int64(7), event.OwnerID)
	assert.Equal(t, int64(42), event.ConversationID)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	other := NewConversationEvent(MessageAppended, 7, 42)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestGenerations(t *testing.T) {
	g := NewGenerations()
	ctx := context.Background()

	assert.Zero(t, g.Current(1))

	assert.NoError(t, g.HandleEvent(ctx, NewConversationEvent(ConversationCreated, 1, 10)))
	assert.NoError(t, g.HandleEvent(ctx, NewConversationEvent(MessageAppended, 1, 10)))
	assert.Equal(t, uint64(2), g.Current(1))
	assert.Zero(t, g.Current(2), "owners are counted independently")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Bump(3)
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), g.Current(3))
}

// MockEventHandler records the events it receives.
type MockEventHandler struct {
	mu           sync.Mutex
	HandledCount int
	LastEvent    *ConversationEvent
	HandlerError error
}

func (m *MockEventHandler) HandleEvent(_ context.Context, event *ConversationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HandledCount++
	m.LastEvent = event
	return m.HandlerError
}
