package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasktalk-api/internal/api/shared"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
	"github.com/phrazzld/tasktalk-api/internal/service/chat"
)

// ChatRequest is the body of POST /api/{user_id}/chat.
type ChatRequest struct {
	ConversationID *int64 `json:"conversation_id" validate:"omitempty,gt=0"`
	Message        string `json:"message"         validate:"required"`
}

// DeleteResponse is returned after a conversation is deleted.
type DeleteResponse struct {
	Status         string `json:"status"`
	ConversationID int64  `json:"conversation_id"`
}

// ChatHandler serves chat submission and conversation queries.
type ChatHandler struct {
	pipeline *chat.Pipeline
	logger   *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(pipeline *chat.Pipeline, logger *slog.Logger) *ChatHandler {
	if pipeline == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("pipeline cannot be nil for ChatHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{pipeline: pipeline, logger: logger.With(slog.String("component", "chat_handler"))}
}

// Submit handles POST /api/{user_id}/chat.
func (h *ChatHandler) Submit(w http.ResponseWriter, r *http.Request) {
	owner, err := pathID(r, "user_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	var req ChatRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	var convID int64
	if req.ConversationID != nil {
		convID = *req.ConversationID
	}
	resp, err := h.pipeline.Submit(r.Context(), chat.SubmitRequest{
		OwnerID:        owner,
		Authorization:  r.Header.Get("Authorization"),
		ConversationID: convID,
		Message:        req.Message,
	})
	if err != nil {
		respondWithPipelineError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("chat turn completed",
		slog.Int64("conversation_id", resp.ConversationID),
		slog.Int("tools_invoked", len(resp.ToolsInvoked)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListConversations handles GET /api/{user_id}/conversations.
func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	owner, err := pathID(r, "user_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}
	list, err := h.pipeline.ListConversations(r.Context(), owner, r.Header.Get("Authorization"))
	if err != nil {
		respondWithPipelineError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, list)
}

// GetConversation handles GET /api/{user_id}/conversations/{conversation_id}.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	owner, convID, ok := h.ownerAndConversation(w, r)
	if !ok {
		return
	}
	view, err := h.pipeline.GetConversation(r.Context(), owner, r.Header.Get("Authorization"), convID)
	if err != nil {
		respondWithPipelineError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// GetMessages handles GET /api/{user_id}/conversations/{conversation_id}/messages.
func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	owner, convID, ok := h.ownerAndConversation(w, r)
	if !ok {
		return
	}
	skip, err := queryInt(r, "skip")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return
	}

	page, err := h.pipeline.GetMessages(r.Context(), owner, r.Header.Get("Authorization"), convID, skip, limit)
	if err != nil {
		respondWithPipelineError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, page)
}

// DeleteConversation handles DELETE /api/{user_id}/conversations/{conversation_id}.
func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	owner, convID, ok := h.ownerAndConversation(w, r)
	if !ok {
		return
	}
	if err := h.pipeline.DeleteConversation(r.Context(), owner, r.Header.Get("Authorization"), convID); err != nil {
		respondWithPipelineError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DeleteResponse{Status: chat.StatusSuccess, ConversationID: convID})
}

func (h *ChatHandler) ownerAndConversation(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	owner, err := pathID(r, "user_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return 0, 0, false
	}
	convID, err := pathID(r, "conversation_id")
	if err != nil {
		shared.RespondWithError(w, r, err)
		return 0, 0, false
	}
	return owner, convID, true
}
