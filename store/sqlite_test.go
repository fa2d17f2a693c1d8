package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"todochat/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *SQLiteStore) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		UserID:       uuid.New().String(),
		Email:        uuid.New().String() + "@example.com",
		Name:         "Test User",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func seedTask(t *testing.T, s *SQLiteStore, userID, title string) *domain.Task {
	t.Helper()

	now := time.Now()
	task := &domain.Task{
		TaskID:    uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	return task
}

func TestUserLookup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s)

	got, err := s.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got == nil || got.UserID != user.UserID || got.Name != "Test User" {
		t.Fatalf("unexpected user: %+v", got)
	}

	got, err = s.GetUser(ctx, uuid.New().String())
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent user, got %+v", got)
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s)

	dup := *user
	dup.UserID = uuid.New().String()
	if err := s.CreateUser(ctx, &dup); err == nil {
		t.Fatal("expected unique constraint violation")
	}
}

func TestTaskUpdatePartial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s)
	task := seedTask(t, s, user.UserID, "original")

	title := "renamed"
	got, err := s.UpdateTask(ctx, task.TaskID, domain.TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if got == nil || got.Title != "renamed" {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.IsCompleted {
		t.Fatal("completion flag must be untouched")
	}

	got, err = s.UpdateTask(ctx, uuid.New().String(), domain.TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent task, got %+v", got)
	}
}

func TestSetTaskCompletedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s)
	task := seedTask(t, s, user.UserID, "x")

	for i := 0; i < 2; i++ {
		got, err := s.SetTaskCompleted(ctx, task.TaskID, true)
		if err != nil {
			t.Fatalf("SetTaskCompleted failed: %v", err)
		}
		if got == nil || !got.IsCompleted {
			t.Fatalf("unexpected task after set %d: %+v", i, got)
		}
	}
}

func TestDeleteTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s)
	task := seedTask(t, s, user.UserID, "x")

	deleted, err := s.DeleteTask(ctx, task.TaskID)
	if err != nil || !deleted {
		t.Fatalf("DeleteTask = %v, %v", deleted, err)
	}

	deleted, err = s.DeleteTask(ctx, task.TaskID)
	if err != nil || deleted {
		t.Fatalf("second DeleteTask = %v, %v", deleted, err)
	}
}

func TestMessagesOrderedByAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := seedUser(t, s)

	now := time.Now()
	conv := &domain.Conversation{
		ConversationID: uuid.New().String(),
		UserID:         user.UserID,
		Title:          "t",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	for i, content := range []string{"first", "second", "third"} {
		msg := &domain.Message{
			MessageID:      uuid.New().String(),
			ConversationID: conv.ConversationID,
			Role:           domain.RoleUser,
			Content:        content,
			CreatedAt:      now.Add(time.Duration(i) * time.Millisecond),
			Metadata:       json.RawMessage(`{"n":` + string(rune('0'+i)) + `}`),
		}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatalf("AppendMessage failed: %v", err)
		}
	}

	messages, err := s.ListMessages(ctx, conv.ConversationID, 0, "")
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i := 1; i < len(messages); i++ {
		if messages[i].CreatedAt.Before(messages[i-1].CreatedAt) {
			t.Fatalf("timestamps not monotonic at index %d", i)
		}
	}
	if messages[0].Content != "first" || messages[2].Content != "third" {
		t.Fatalf("unexpected order: %+v", messages)
	}

	// Appending bumps the conversation's updated_at.
	got, err := s.GetConversation(ctx, conv.ConversationID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.UpdatedAt.Before(conv.UpdatedAt) {
		t.Fatal("updated_at not bumped by append")
	}
}
