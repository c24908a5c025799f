package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasktalk-api/internal/classify"
	"github.com/phrazzld/tasktalk-api/internal/mocks"
	"github.com/phrazzld/tasktalk-api/internal/understanding"
)

func seedConversation(t *testing.T, h *harness, owner int64, auth string, messages ...string) int64 {
	t.Helper()
	var convID int64
	for _, m := range messages {
		resp, err := h.pipeline.Submit(context.Background(), SubmitRequest{
			OwnerID: owner, Authorization: auth, ConversationID: convID, Message: m,
		})
		require.NoError(t, err)
		convID = resp.ConversationID
	}
	return convID
}

func echoHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.model.UnderstandFn = func(context.Context, understanding.Request) (*understanding.Response, error) {
		return &understanding.Response{Text: "noted"}, nil
	}
	return h
}

func TestListConversationsIsCachedUntilChange(t *testing.T) {
	h := echoHarness(t)
	ctx := context.Background()

	first := seedConversation(t, h, 1, bearer("1"), "first thread")

	list, err := h.pipeline.ListConversations(ctx, 1, bearer("1"))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0].ID)
	assert.Equal(t, 2, list[0].MessageCount)
	assert.Equal(t, "noted", list[0].Preview)

	_, err = h.pipeline.ListConversations(ctx, 1, bearer("1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.cache.Stats().Hits)

	second := seedConversation(t, h, 1, bearer("1"), "second thread")
	list, err = h.pipeline.ListConversations(ctx, 1, bearer("1"))
	require.NoError(t, err)
	require.Len(t, list, 2, "a new conversation is visible immediately")
	assert.Equal(t, second, list[0].ID)
}

func TestListConversationsScopedToOwner(t *testing.T) {
	h := echoHarness(t)
	seedConversation(t, h, 1, bearer("1"), "mine")

	list, err := h.pipeline.ListConversations(context.Background(), 2, bearer("2"))
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = h.pipeline.ListConversations(context.Background(), 1, bearer("2"))
	assert.Equal(t, classify.Forbidden, failureOf(t, err).Kind)
}

func TestGetConversation(t *testing.T) {
	h := echoHarness(t)
	ctx := context.Background()
	id := seedConversation(t, h, 1, bearer("1"), "one", "two")

	view, err := h.pipeline.GetConversation(ctx, 1, bearer("1"), id)
	require.NoError(t, err)
	assert.Equal(t, id, view.ID)
	assert.Equal(t, 4, view.MessageCount)
	require.Len(t, view.Messages, 4)
	assert.Equal(t, "one", view.Messages[0].Content)
	assert.Equal(t, "noted", view.Messages[3].Content)
}

func TestGetConversationOfAnotherOwner(t *testing.T) {
	h := echoHarness(t)
	id := seedConversation(t, h, 1, bearer("1"), "secret plans")

	view, err := h.pipeline.GetConversation(context.Background(), 2, bearer("2"), id)
	assert.Nil(t, view)
	f := failureOf(t, err)
	assert.Equal(t, classify.NotFound, f.Kind)
	assert.NotContains(t, f.Detail, "secret plans")
	assert.NotContains(t, f.Message, "secret plans")
}

func TestGetMessagesPaging(t *testing.T) {
	h := echoHarness(t)
	ctx := context.Background()
	id := seedConversation(t, h, 1, bearer("1"), "a", "b", "c")

	page, err := h.pipeline.GetMessages(ctx, 1, bearer("1"), id, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Skip)
	assert.Equal(t, 2, page.Limit)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "b", page.Messages[0].Content)

	page, err = h.pipeline.GetMessages(ctx, 1, bearer("1"), id, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, page.Limit)
	assert.Equal(t, 6, page.Total)

	for _, tc := range []struct{ skip, limit int }{{-1, 10}, {0, MaxPageLimit + 1}, {0, -5}} {
		_, err := h.pipeline.GetMessages(ctx, 1, bearer("1"), id, tc.skip, tc.limit)
		assert.Equal(t, classify.InvalidInput, failureOf(t, err).Kind, "skip=%d limit=%d", tc.skip, tc.limit)
	}

	_, err = h.pipeline.GetMessages(ctx, 2, bearer("2"), id, 0, 10)
	assert.Equal(t, classify.NotFound, failureOf(t, err).Kind)
}

func TestGetMessagesSeesNewMessages(t *testing.T) {
	h := echoHarness(t)
	ctx := context.Background()
	id := seedConversation(t, h, 1, bearer("1"), "a")

	page, err := h.pipeline.GetMessages(ctx, 1, bearer("1"), id, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	_, err = h.pipeline.Submit(ctx, SubmitRequest{OwnerID: 1, Authorization: bearer("1"), ConversationID: id, Message: "b"})
	require.NoError(t, err)

	page, err = h.pipeline.GetMessages(ctx, 1, bearer("1"), id, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
}

func TestDeleteConversation(t *testing.T) {
	h := echoHarness(t)
	ctx := context.Background()
	id := seedConversation(t, h, 1, bearer("1"), "temporary")

	_, err := h.pipeline.GetConversation(ctx, 1, bearer("1"), id)
	require.NoError(t, err)

	err = h.pipeline.DeleteConversation(ctx, 2, bearer("2"), id)
	assert.Equal(t, classify.NotFound, failureOf(t, err).Kind)

	require.NoError(t, h.pipeline.DeleteConversation(ctx, 1, bearer("1"), id))

	_, err = h.pipeline.GetConversation(ctx, 1, bearer("1"), id)
	assert.Equal(t, classify.NotFound, failureOf(t, err).Kind, "cached view is not served after delete")

	err = h.pipeline.DeleteConversation(ctx, 1, bearer("1"), id)
	assert.Equal(t, classify.NotFound, failureOf(t, err).Kind)
}

func TestQueriesRequireCredential(t *testing.T) {
	h := newHarness(t, mocks.TextStep("unused"))
	ctx := context.Background()

	_, err := h.pipeline.ListConversations(ctx, 1, "")
	assert.Equal(t, classify.Unauthorized, failureOf(t, err).Kind)
	_, err = h.pipeline.GetConversation(ctx, 1, "Basic abc", 1)
	assert.Equal(t, classify.Unauthorized, failureOf(t, err).Kind)
	_, err = h.pipeline.GetMessages(ctx, 1, "Bearer bogus", 1, 0, 10)
	assert.Equal(t, classify.Unauthorized, failureOf(t, err).Kind)
	err = h.pipeline.DeleteConversation(ctx, 1, bearer("3"), 1)
	assert.Equal(t, classify.Forbidden, failureOf(t, err).Kind)
}
