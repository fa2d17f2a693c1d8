package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"todochat/auth"
	"todochat/domain"
)

// TodoRequest is the request body for creating or updating a todo.
type TodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// CompletedRequest sets the completion flag of a todo.
type CompletedRequest struct {
	Completed bool `json:"completed"`
}

// ListTodos returns the caller's tasks.
// GET /api/todos
func (h *Handler) ListTodos(c echo.Context) error {
	tasks, err := h.store.ListTasks(c.Request().Context(), auth.CallerID(c))
	if err != nil {
		log.Printf("ERROR: failed to list tasks: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list todos"})
	}
	return c.JSON(http.StatusOK, map[string]any{"todos": tasks})
}

// CreateTodo creates a task owned by the caller.
// POST /api/todos
func (h *Handler) CreateTodo(c echo.Context) error {
	var req TodoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := validateTodoFields(req.Title, req.Description); err != nil {
		return errorResponse(c, err)
	}

	now := time.Now()
	task := &domain.Task{
		TaskID:      uuid.New().String(),
		UserID:      auth.CallerID(c),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.store.CreateTask(c.Request().Context(), task); err != nil {
		log.Printf("ERROR: failed to create task: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create todo"})
	}
	return c.JSON(http.StatusCreated, task)
}

// GetTodo returns a single owned task.
// GET /api/todos/:todo_id
func (h *Handler) GetTodo(c echo.Context) error {
	task, err := h.loadOwnedTask(c.Request().Context(), c.Param("todo_id"), auth.CallerID(c))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, task)
}

// UpdateTodo replaces the title/description of an owned task.
// PUT /api/todos/:todo_id
func (h *Handler) UpdateTodo(c echo.Context) error {
	var req TodoRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := validateTodoFields(req.Title, req.Description); err != nil {
		return errorResponse(c, err)
	}

	ctx := c.Request().Context()
	taskID := c.Param("todo_id")
	if _, err := h.loadOwnedTask(ctx, taskID, auth.CallerID(c)); err != nil {
		return errorResponse(c, err)
	}

	title := strings.TrimSpace(req.Title)
	task, err := h.store.UpdateTask(ctx, taskID, domain.TaskUpdate{
		Title:       &title,
		Description: &req.Description,
	})
	if err != nil {
		log.Printf("ERROR: failed to update task: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update todo"})
	}
	if task == nil {
		return errorResponse(c, fmt.Errorf("%w: todo %s", domain.ErrNotFound, taskID))
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteTodo deletes an owned task.
// DELETE /api/todos/:todo_id
func (h *Handler) DeleteTodo(c echo.Context) error {
	ctx := c.Request().Context()
	taskID := c.Param("todo_id")
	if _, err := h.loadOwnedTask(ctx, taskID, auth.CallerID(c)); err != nil {
		return errorResponse(c, err)
	}

	deleted, err := h.store.DeleteTask(ctx, taskID)
	if err != nil {
		log.Printf("ERROR: failed to delete task: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete todo"})
	}
	if !deleted {
		return errorResponse(c, fmt.Errorf("%w: todo %s", domain.ErrNotFound, taskID))
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": true, "todo_id": taskID})
}

// SetTodoCompleted sets the completion flag of an owned task. Repeating the
// call with the same value is a no-op.
// PATCH /api/todos/:todo_id/complete
func (h *Handler) SetTodoCompleted(c echo.Context) error {
	var req CompletedRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	taskID := c.Param("todo_id")
	if _, err := h.loadOwnedTask(ctx, taskID, auth.CallerID(c)); err != nil {
		return errorResponse(c, err)
	}

	task, err := h.store.SetTaskCompleted(ctx, taskID, req.Completed)
	if err != nil {
		log.Printf("ERROR: failed to set task completion: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update todo"})
	}
	if task == nil {
		return errorResponse(c, fmt.Errorf("%w: todo %s", domain.ErrNotFound, taskID))
	}
	return c.JSON(http.StatusOK, task)
}

func (h *Handler) loadOwnedTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("%w: todo id is not a valid UUID", domain.ErrValidation)
	}
	task, err := h.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: todo %s", domain.ErrNotFound, taskID)
	}
	if task.UserID != userID {
		return nil, fmt.Errorf("%w: todo %s belongs to another user", domain.ErrForbidden, taskID)
	}
	return task, nil
}

func validateTodoFields(title, description string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, domain.MaxTitleLen)
	}
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrValidation, domain.MaxDescriptionLen)
	}
	return nil
}
