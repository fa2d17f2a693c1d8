package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"todochat/auth"
)

// ChatRequest is one user message, optionally continuing an existing
// conversation.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Chat processes a natural-language message for the caller.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	reply, err := h.chat.HandleMessage(c.Request().Context(), req.Message, auth.CallerID(c), req.ConversationID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

// ListConversations returns the caller's conversations, most recently
// updated first.
// GET /api/conversations
func (h *Handler) ListConversations(c echo.Context) error {
	convs, err := h.store.ListConversations(c.Request().Context(), auth.CallerID(c))
	if err != nil {
		log.Printf("ERROR: failed to list conversations: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list conversations"})
	}
	return c.JSON(http.StatusOK, map[string]any{"conversations": convs})
}

// GetConversationMessages returns the ordered history of an owned
// conversation.
// GET /api/conversations/:conversation_id/messages
func (h *Handler) GetConversationMessages(c echo.Context) error {
	ctx := c.Request().Context()
	conversationID := c.Param("conversation_id")

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 50
	}
	before := c.QueryParam("before")

	conv, err := h.store.GetConversation(ctx, conversationID)
	if err != nil {
		log.Printf("ERROR: failed to get conversation: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get conversation"})
	}
	if conv == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
	}
	if conv.UserID != auth.CallerID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "conversation belongs to another user"})
	}

	messages, err := h.store.ListMessages(ctx, conversationID, limit+1, before)
	if err != nil {
		log.Printf("ERROR: failed to list messages: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list messages"})
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return c.JSON(http.StatusOK, map[string]any{
		"messages": messages,
		"has_more": hasMore,
	})
}
