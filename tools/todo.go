package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"todochat/domain"
	"todochat/store"
)

// CreateTodoTool creates a new task for a user.
type CreateTodoTool struct {
	store store.Store
}

func NewCreateTodoTool(st store.Store) *CreateTodoTool {
	return &CreateTodoTool{store: st}
}

func (t *CreateTodoTool) Name() string { return "create_todo" }

func (t *CreateTodoTool) Validate(args json.RawMessage) error {
	title := strings.TrimSpace(gjson.GetBytes(args, "title").String())
	if title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, domain.MaxTitleLen)
	}
	if desc := gjson.GetBytes(args, "description").String(); utf8.RuneCountInString(desc) > domain.MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrValidation, domain.MaxDescriptionLen)
	}
	return requireUserID(args)
}

func (t *CreateTodoTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	now := time.Now()
	task := &domain.Task{
		TaskID:      uuid.New().String(),
		UserID:      gjson.GetBytes(args, "user_id").String(),
		Title:       strings.TrimSpace(gjson.GetBytes(args, "title").String()),
		Description: gjson.GetBytes(args, "description").String(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	return json.Marshal(task)
}

// GetTodosTool lists all tasks owned by a user.
type GetTodosTool struct {
	store store.Store
}

func NewGetTodosTool(st store.Store) *GetTodosTool {
	return &GetTodosTool{store: st}
}

func (t *GetTodosTool) Name() string { return "get_todos" }

func (t *GetTodosTool) Validate(args json.RawMessage) error {
	return requireUserID(args)
}

func (t *GetTodosTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	tasks, err := t.store.ListTasks(ctx, gjson.GetBytes(args, "user_id").String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	return json.Marshal(tasks)
}

// UpdateTodoTool updates the title and/or description of an owned task.
type UpdateTodoTool struct {
	store store.Store
}

func NewUpdateTodoTool(st store.Store) *UpdateTodoTool {
	return &UpdateTodoTool{store: st}
}

func (t *UpdateTodoTool) Name() string { return "update_todo" }

func (t *UpdateTodoTool) Validate(args json.RawMessage) error {
	if err := requireTaskID(args); err != nil {
		return err
	}
	if title := gjson.GetBytes(args, "title"); title.Exists() {
		trimmed := strings.TrimSpace(title.String())
		if trimmed == "" || utf8.RuneCountInString(trimmed) > domain.MaxTitleLen {
			return fmt.Errorf("%w: title must be 1-%d characters", domain.ErrValidation, domain.MaxTitleLen)
		}
	}
	if desc := gjson.GetBytes(args, "description"); desc.Exists() && utf8.RuneCountInString(desc.String()) > domain.MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrValidation, domain.MaxDescriptionLen)
	}
	return requireUserID(args)
}

func (t *UpdateTodoTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	taskID := gjson.GetBytes(args, "todo_id").String()
	if _, err := loadOwnedTask(ctx, t.store, taskID, gjson.GetBytes(args, "user_id").String()); err != nil {
		return nil, err
	}

	var update domain.TaskUpdate
	if title := gjson.GetBytes(args, "title"); title.Exists() {
		v := strings.TrimSpace(title.String())
		update.Title = &v
	}
	if desc := gjson.GetBytes(args, "description"); desc.Exists() {
		v := desc.String()
		update.Description = &v
	}

	task, err := t.store.UpdateTask(ctx, taskID, update)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	return json.Marshal(task)
}

// DeleteTodoTool deletes an owned task.
type DeleteTodoTool struct {
	store store.Store
}

func NewDeleteTodoTool(st store.Store) *DeleteTodoTool {
	return &DeleteTodoTool{store: st}
}

func (t *DeleteTodoTool) Name() string { return "delete_todo" }

func (t *DeleteTodoTool) Validate(args json.RawMessage) error {
	if err := requireTaskID(args); err != nil {
		return err
	}
	return requireUserID(args)
}

func (t *DeleteTodoTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	taskID := gjson.GetBytes(args, "todo_id").String()
	if _, err := loadOwnedTask(ctx, t.store, taskID, gjson.GetBytes(args, "user_id").String()); err != nil {
		return nil, err
	}

	deleted, err := t.store.DeleteTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	if !deleted {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	return json.Marshal(map[string]any{
		"deleted": true,
		"todo_id": taskID,
	})
}

// ToggleTodoCompletionTool sets the completion flag of an owned task. This
// is a set, not a flip: the caller supplies the target state.
type ToggleTodoCompletionTool struct {
	store store.Store
}

func NewToggleTodoCompletionTool(st store.Store) *ToggleTodoCompletionTool {
	return &ToggleTodoCompletionTool{store: st}
}

func (t *ToggleTodoCompletionTool) Name() string { return "toggle_todo_completion" }

func (t *ToggleTodoCompletionTool) Validate(args json.RawMessage) error {
	if err := requireTaskID(args); err != nil {
		return err
	}
	if completed := gjson.GetBytes(args, "completed"); !completed.IsBool() {
		return fmt.Errorf("%w: completed must be a boolean", domain.ErrValidation)
	}
	return requireUserID(args)
}

func (t *ToggleTodoCompletionTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	taskID := gjson.GetBytes(args, "todo_id").String()
	if _, err := loadOwnedTask(ctx, t.store, taskID, gjson.GetBytes(args, "user_id").String()); err != nil {
		return nil, err
	}

	task, err := t.store.SetTaskCompleted(ctx, taskID, gjson.GetBytes(args, "completed").Bool())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	return json.Marshal(task)
}

func requireUserID(args json.RawMessage) error {
	userID := gjson.GetBytes(args, "user_id").String()
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("%w: user_id is not a valid UUID", domain.ErrValidation)
	}
	return nil
}

func requireTaskID(args json.RawMessage) error {
	taskID := gjson.GetBytes(args, "todo_id").String()
	if taskID == "" {
		return fmt.Errorf("%w: todo_id is required", domain.ErrValidation)
	}
	if _, err := uuid.Parse(taskID); err != nil {
		return fmt.Errorf("%w: todo_id is not a valid UUID", domain.ErrValidation)
	}
	return nil
}

// loadOwnedTask fetches a task and verifies the caller owns it. An owner
// mismatch is a forbidden condition, not a not-found one.
func loadOwnedTask(ctx context.Context, st store.Store, taskID, userID string) (*domain.Task, error) {
	task, err := st.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrToolExecution, err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("%w: task %s belongs to another user", domain.ErrForbidden, taskID)
	}
	return task, nil
}
