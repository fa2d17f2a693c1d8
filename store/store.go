// Package store defines the storage interface and implementations.
package store

import (
	"context"

	"todochat/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Task operations
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, taskID string, update domain.TaskUpdate) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID string) (bool, error)
	SetTaskCompleted(ctx context.Context, taskID string, completed bool) (*domain.Task, error)

	// Conversation operations
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error)

	// Message operations, append-only
	AppendMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, conversationID string, limit int, before string) ([]domain.Message, error)

	// Lifecycle
	Close() error
}
