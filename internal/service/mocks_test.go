package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/phrazzld/tasktalk-api/internal/events"
)

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.ConversationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func eventOf(t events.Type, ownerID, conversationID int64) any {
	return mock.MatchedBy(func(e *events.ConversationEvent) bool {
		return e.Type == t && e.OwnerID == ownerID && e.ConversationID == conversationID
	})
}
