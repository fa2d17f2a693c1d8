package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	"todochat/domain"
	"todochat/store"
)

// ChatReply is returned to the caller after a full chat turn.
type ChatReply struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
}

// Chat glues the agent to conversation storage: it resolves the
// conversation, appends the user message, runs classification and dispatch,
// and appends the assistant reply.
type Chat struct {
	agent *Agent
	store store.Store
}

// NewChat creates the chat orchestrator.
func NewChat(agent *Agent, st store.Store) *Chat {
	return &Chat{agent: agent, store: st}
}

// HandleMessage processes one user message within a conversation owned by
// userID. When conversationID is empty a new conversation is created; a
// missing or foreign conversation id fails with a typed error before
// anything is appended. The two appends and the tool call in between are
// not transactional: a failure mid-flight leaves a partial history, which
// is accepted as append-only consistency.
func (c *Chat) HandleMessage(ctx context.Context, message, userID, conversationID string) (*ChatReply, error) {
	if utf8.RuneCountInString(message) > domain.MaxContentLen {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrValidation, domain.MaxContentLen)
	}

	conv, err := c.resolveConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMsg := &domain.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conv.ConversationID,
		Role:           domain.RoleUser,
		Content:        message,
		CreatedAt:      now,
	}
	if err := c.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("failed to append user message: %w", err)
	}

	result := c.agent.ProcessMessage(ctx, message, userID)

	metadata, _ := sjson.Set("", "intent", string(result.Intent))
	metadata, _ = sjson.Set(metadata, "action_taken", result.ActionTaken)

	assistantMsg := &domain.Message{
		MessageID:      uuid.New().String(),
		ConversationID: conv.ConversationID,
		Role:           domain.RoleAssistant,
		Content:        result.Response,
		CreatedAt:      time.Now(),
		Metadata:       json.RawMessage(metadata),
	}
	if err := c.store.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to append assistant message: %w", err)
	}

	return &ChatReply{
		Response:       result.Response,
		ConversationID: conv.ConversationID,
		MessageID:      assistantMsg.MessageID,
	}, nil
}

// resolveConversation loads an existing conversation or creates a new one
// when no id is supplied. A supplied id that is absent or owned by someone
// else is an error, never a silently created conversation.
func (c *Chat) resolveConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := c.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}
		if conv == nil {
			return nil, fmt.Errorf("%w: conversation %s", domain.ErrNotFound, conversationID)
		}
		if conv.UserID != userID {
			return nil, fmt.Errorf("%w: conversation %s", domain.ErrForbidden, conversationID)
		}
		return conv, nil
	}

	now := time.Now()
	conv := &domain.Conversation{
		ConversationID: uuid.New().String(),
		UserID:         userID,
		Title:          "Conversation with " + userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}
