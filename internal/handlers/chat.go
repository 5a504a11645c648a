package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tidytask/tidytask/internal/agent"
	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/logger"
	"github.com/tidytask/tidytask/internal/middleware"
	"github.com/tidytask/tidytask/internal/models"
	"github.com/tidytask/tidytask/internal/store"
)

const maxMessageLength = 4000

type ChatHandler struct {
	db            *database.DB
	runner        *agent.Runner
	conversations *store.ConversationStore
}

func NewChatHandler(db *database.DB, runner *agent.Runner, conversations *store.ConversationStore) *ChatHandler {
	return &ChatHandler{db: db, runner: runner, conversations: conversations}
}

// Chat runs one agent turn against the caller's current conversation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(req.Message) > maxMessageLength {
		writeError(w, http.StatusBadRequest, "message too long")
		return
	}

	conv, err := h.conversations.GetOrCreateCurrent(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open conversation")
		return
	}

	resp := h.runner.Run(r.Context(), userID, conv.ID, req.Message)

	// The turn always records both sides, degraded replies included.
	if _, err := h.conversations.AppendMessage(r.Context(), conv.ID, models.RoleUser, req.Message); err != nil {
		logger.Error("Failed to record user message: %v", err)
	}
	if _, err := h.conversations.AppendMessage(r.Context(), conv.ID, models.RoleAssistant, resp.ResponseText); err != nil {
		logger.Error("Failed to record assistant message: %v", err)
	}

	h.db.LogAudit(userID, "chat_turn", "chat", "conversation",
		strconv.FormatInt(conv.ID, 10),
		strconv.Itoa(len(resp.ToolCalls))+" tool calls")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conv.ID,
		"response":        resp.ResponseText,
		"tool_calls":      resp.ToolCalls,
	})
}

// History returns the caller's current conversation transcript.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	conv, err := h.conversations.GetOrCreateCurrent(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open conversation")
		return
	}

	messages, err := h.conversations.History(r.Context(), conv.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conv.ID,
		"messages":        messages,
	})
}
