package tools_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"todochat/domain"
	"todochat/policy"
	"todochat/store"
	"todochat/tests/helpers"
	"todochat/tools"
)

func newTestRegistry(t *testing.T) (*tools.Registry, store.Store) {
	t.Helper()

	st := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}
	return tools.NewTaskRegistry(st, engine), st
}

func newTestUser(t *testing.T, st store.Store) string {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		UserID:       uuid.New().String(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user.UserID
}

func createArgs(userID, title string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"title":%q,"user_id":%q}`, title, userID))
}

func TestCreateAndListTodos(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	res := r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(userID, "buy milk")})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "buy milk", gjson.GetBytes(res.Data, "title").String())
	assert.Equal(t, userID, gjson.GetBytes(res.Data, "user_id").String())
	assert.False(t, gjson.GetBytes(res.Data, "is_completed").Bool())

	res = r.Execute(ctx, domain.ToolCall{ToolName: "get_todos", Args: json.RawMessage(fmt.Sprintf(`{"user_id":%q}`, userID))})
	require.True(t, res.Success, res.Error)
	todos := gjson.ParseBytes(res.Data).Array()
	assert.Len(t, todos, 1)
	assert.Equal(t, "buy milk", todos[0].Get("title").String())
}

func TestCreateTodoValidation(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	res := r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(userID, "")})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "title is required")

	res = r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: json.RawMessage(`{"title":"x","user_id":"not-a-uuid"}`)})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "user_id is not a valid UUID")
}

func TestTitleLimitCountsCharacters(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	// 200 two-byte characters stay within the limit; 201 do not.
	res := r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(userID, strings.Repeat("ü", domain.MaxTitleLen))})
	assert.True(t, res.Success, res.Error)

	res = r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(userID, strings.Repeat("ü", domain.MaxTitleLen+1))})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "title exceeds")
}

func TestToggleIsSetNotFlip(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	res := r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(userID, "buy milk")})
	require.True(t, res.Success, res.Error)
	taskID := gjson.GetBytes(res.Data, "id").String()

	toggleArgs := json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q,"completed":true}`, taskID, userID))
	for i := 0; i < 2; i++ {
		res = r.Execute(ctx, domain.ToolCall{ToolName: "toggle_todo_completion", Args: toggleArgs})
		require.True(t, res.Success, res.Error)
		assert.True(t, gjson.GetBytes(res.Data, "is_completed").Bool())
	}

	task, err := st.GetTask(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.True(t, task.IsCompleted)
}

func TestToggleRequiresBoolean(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	args := json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q,"completed":"yes"}`, uuid.New().String(), userID))
	res := r.Execute(ctx, domain.ToolCall{ToolName: "toggle_todo_completion", Args: args})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "completed must be a boolean")
}

func TestOwnershipIsEnforced(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	owner := newTestUser(t, st)
	other := newTestUser(t, st)

	res := r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(owner, "private")})
	require.True(t, res.Success, res.Error)
	taskID := gjson.GetBytes(res.Data, "id").String()

	for _, call := range []domain.ToolCall{
		{ToolName: "update_todo", Args: json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q,"title":"stolen"}`, taskID, other))},
		{ToolName: "delete_todo", Args: json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q}`, taskID, other))},
		{ToolName: "toggle_todo_completion", Args: json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q,"completed":true}`, taskID, other))},
	} {
		res = r.Execute(ctx, call)
		assert.False(t, res.Success, call.ToolName)
		assert.Contains(t, res.Error, "belongs to another user", call.ToolName)
		assert.Empty(t, res.Data, call.ToolName)
	}

	// The task is untouched.
	task, err := st.GetTask(ctx, taskID)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "private", task.Title)
	assert.False(t, task.IsCompleted)
}

func TestUpdateTodo(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	res := r.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: createArgs(userID, "old title")})
	require.True(t, res.Success, res.Error)
	taskID := gjson.GetBytes(res.Data, "id").String()

	args := json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q,"title":"new title"}`, taskID, userID))
	res = r.Execute(ctx, domain.ToolCall{ToolName: "update_todo", Args: args})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "new title", gjson.GetBytes(res.Data, "title").String())
}

func TestNotFoundDistinctFromForbidden(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	args := json.RawMessage(fmt.Sprintf(`{"todo_id":%q,"user_id":%q}`, uuid.New().String(), userID))
	res := r.Execute(ctx, domain.ToolCall{ToolName: "delete_todo", Args: args})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
	assert.NotContains(t, res.Error, "belongs to another user")
}

func TestInvalidIdentifierRejectedBeforeStore(t *testing.T) {
	r, st := newTestRegistry(t)
	ctx := context.Background()
	userID := newTestUser(t, st)

	args := json.RawMessage(fmt.Sprintf(`{"todo_id":"42","user_id":%q}`, userID))
	res := r.Execute(ctx, domain.ToolCall{ToolName: "delete_todo", Args: args})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "todo_id is not a valid UUID")
}
