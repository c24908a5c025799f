package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/tasktalk-api/internal/domain"
	"github.com/phrazzld/tasktalk-api/internal/store"
)

// Store is a mutex-guarded in-memory store. Returned entities are copies, so
// callers can never mutate stored state in place.
type Store struct {
	mu            sync.Mutex
	tasks         map[int64]domain.Task
	conversations map[int64]domain.Conversation
	messages      map[int64][]domain.Message // by conversation, insertion order
	nextID        map[string]int64
	failures      map[string]error
}

var _ store.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		tasks:         make(map[int64]domain.Task),
		conversations: make(map[int64]domain.Conversation),
		messages:      make(map[int64][]domain.Message),
		nextID:        make(map[string]int64),
		failures:      make(map[string]error),
	}
}

// Operation names accepted by FailOn.
const (
	OpTaskCreate         = "tasks.create"
	OpTaskGet            = "tasks.get"
	OpTaskList           = "tasks.list"
	OpTaskUpdate         = "tasks.update"
	OpTaskDelete         = "tasks.delete"
	OpConversationCreate = "conversations.create"
	OpConversationGet    = "conversations.get"
	OpConversationList   = "conversations.list"
	OpConversationTouch  = "conversations.touch"
	OpConversationDelete = "conversations.delete"
	OpMessageCreate      = "messages.create"
	OpMessageList        = "messages.list"
)

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Tasks returns the task capability.
func (s *Store) Tasks() store.TaskStore { return taskStore{s} }

// Conversations returns the conversation capability.
func (s *Store) Conversations() store.ConversationStore { return conversationStore{s} }

// Messages returns the message capability.
func (s *Store) Messages() store.MessageStore { return messageStore{s} }

// lock acquires mu unless ctx is done or a failure is injected for op.
// On success the caller must call s.mu.Unlock.
func (s *Store) lock(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return store.NewStoreError(entityOf(op), op, "context done", err)
	}
	s.mu.Lock()
	if err := s.failures[op]; err != nil {
		s.mu.Unlock()
		return store.NewStoreError(entityOf(op), op, "injected failure", err)
	}
	return nil
}

func (s *Store) id(entity string) int64 {
	s.nextID[entity]++
	return s.nextID[entity]
}

func entityOf(op string) string {
	for i := 0; i < len(op); i++ {
		if op[i] == '.' {
			return op[:i]
		}
	}
	return op
}

type taskStore struct{ s *Store }

func (t taskStore) Create(ctx context.Context, task *domain.Task) error {
	s := t.s
	if err := s.lock(ctx, OpTaskCreate); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "create", "invalid task", err)
	}
	task.ID = s.id("task")
	s.tasks[task.ID] = copyTask(*task)
	return nil
}

func (t taskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	s := t.s
	if err := s.lock(ctx, OpTaskGet); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	out := copyTask(task)
	return &out, nil
}

func (t taskStore) ListByOwner(ctx context.Context, ownerID int64, filter domain.TaskFilter) ([]*domain.Task, error) {
	s := t.s
	if err := s.lock(ctx, OpTaskList); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]*domain.Task, 0)
	for _, task := range s.tasks {
		if task.OwnerID != ownerID || !filter.Matches(&task) {
			continue
		}
		c := copyTask(task)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t taskStore) Update(ctx context.Context, task *domain.Task) error {
	s := t.s
	if err := s.lock(ctx, OpTaskUpdate); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	if err := task.Validate(); err != nil {
		return store.NewStoreError("task", "update", "invalid task", err)
	}
	s.tasks[task.ID] = copyTask(*task)
	return nil
}

func (t taskStore) Delete(ctx context.Context, id int64) error {
	s := t.s
	if err := s.lock(ctx, OpTaskDelete); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (t taskStore) WithTx(*sql.Tx) store.TaskStore { return t }

type conversationStore struct{ s *Store }

func (c conversationStore) Create(ctx context.Context, conv *domain.Conversation) error {
	s := c.s
	if err := s.lock(ctx, OpConversationCreate); err != nil {
		return err
	}
	defer s.mu.Unlock()

	conv.ID = s.id("conversation")
	s.conversations[conv.ID] = *conv
	return nil
}

func (c conversationStore) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	s := c.s
	if err := s.lock(ctx, OpConversationGet); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, store.ErrConversationNotFound
	}
	return &conv, nil
}

func (c conversationStore) ListSummaries(ctx context.Context, ownerID int64) ([]domain.ConversationSummary, error) {
	s := c.s
	if err := s.lock(ctx, OpConversationList); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	out := make([]domain.ConversationSummary, 0)
	for _, conv := range s.conversations {
		if conv.OwnerID != ownerID {
			continue
		}
		msgs := s.messages[conv.ID]
		preview := domain.EmptyPreview
		if n := len(msgs); n > 0 {
			preview = domain.MakePreview(msgs[n-1].Content)
		}
		out = append(out, domain.ConversationSummary{
			ID:           conv.ID,
			MessageCount: len(msgs),
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			Preview:      preview,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (c conversationStore) Touch(ctx context.Context, id int64, at time.Time) error {
	s := c.s
	if err := s.lock(ctx, OpConversationTouch); err != nil {
		return err
	}
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return store.ErrConversationNotFound
	}
	conv.UpdatedAt = at
	s.conversations[id] = conv
	return nil
}

func (c conversationStore) Delete(ctx context.Context, id int64) error {
	s := c.s
	if err := s.lock(ctx, OpConversationDelete); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return store.ErrConversationNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

func (c conversationStore) WithTx(*sql.Tx) store.ConversationStore { return c }

type messageStore struct{ s *Store }

func (m messageStore) Create(ctx context.Context, msg *domain.Message) error {
	s := m.s
	if err := s.lock(ctx, OpMessageCreate); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return store.ErrConversationNotFound
	}
	if err := msg.Validate(); err != nil {
		return store.NewStoreError("message", "create", "invalid message", err)
	}
	msg.ID = s.id("message")
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (m messageStore) List(ctx context.Context, conversationID int64, offset, limit int) ([]*domain.Message, error) {
	s := m.s
	if err := s.lock(ctx, OpMessageList); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	all := s.messages[conversationID]
	if offset < 0 {
		offset = 0
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return copyMessages(all[offset:end]), nil
}

func (m messageStore) ListRecent(ctx context.Context, conversationID int64, limit int) ([]*domain.Message, error) {
	s := m.s
	if err := s.lock(ctx, OpMessageList); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	all := s.messages[conversationID]
	start := 0
	if limit > 0 && len(all) > limit {
		start = len(all) - limit
	}
	return copyMessages(all[start:]), nil
}

func (m messageStore) WithTx(*sql.Tx) store.MessageStore { return m }

func copyTask(t domain.Task) domain.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	return t
}

func copyMessages(in []domain.Message) []*domain.Message {
	out := make([]*domain.Message, len(in))
	for i := range in {
		m := in[i]
		out[i] = &m
	}
	return out
}
