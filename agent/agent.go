package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"todochat/domain"
	"todochat/tools"
)

// Result is the outcome of processing one user message. Failures inside the
// classifier or a tool degrade to a clarification Response with
// ActionTaken=false; Result itself never carries an error.
type Result struct {
	Response    string          `json:"response"`
	ActionTaken bool            `json:"action_taken"`
	Intent      domain.Intent   `json:"intent"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// Agent turns user messages into tool calls and conversational replies.
type Agent struct {
	registry *tools.Registry
}

// New creates an agent dispatching against the given registry.
func New(registry *tools.Registry) *Agent {
	return &Agent{registry: registry}
}

// ProcessMessage classifies a message and dispatches the matching tool on
// behalf of userID.
func (a *Agent) ProcessMessage(ctx context.Context, message, userID string) Result {
	intent, title, err := Classify(message)
	if err != nil {
		return Result{
			Response: "Input validation error: " + validationMessage(err),
			Intent:   domain.IntentUnknown,
		}
	}

	switch intent {
	case domain.IntentCreateTask:
		return a.handleCreate(ctx, title, userID)
	case domain.IntentListTasks:
		return a.handleList(ctx, userID)
	case domain.IntentUpdateTask:
		return handleUpdate(message)
	case domain.IntentDeleteTask:
		return handleDelete(title)
	case domain.IntentToggleCompletion:
		return handleToggle(title)
	default:
		return Result{
			Response: "I'm not sure how to help with that. You can ask me to create, view, update, delete, or mark todos as complete.",
			Intent:   domain.IntentUnknown,
		}
	}
}

func (a *Agent) handleCreate(ctx context.Context, title, userID string) Result {
	if title == "" {
		return Result{
			Response: "I couldn't understand what todo you'd like to create. Please be more specific.",
			Intent:   domain.IntentCreateTask,
		}
	}

	args, _ := sjson.Set("", "title", title)
	args, _ = sjson.Set(args, "description", "Created from natural language input")
	args, _ = sjson.Set(args, "user_id", userID)

	res := a.registry.Execute(ctx, domain.ToolCall{ToolName: "create_todo", Args: json.RawMessage(args)})
	if !res.Success {
		return Result{
			Response: "Sorry, I couldn't create that todo: " + res.Error,
			Intent:   domain.IntentCreateTask,
		}
	}

	created := gjson.GetBytes(res.Data, "title").String()
	return Result{
		Response:    fmt.Sprintf("I've created a new todo for you: '%s'.", created),
		ActionTaken: true,
		Intent:      domain.IntentCreateTask,
		Data:        res.Data,
	}
}

func (a *Agent) handleList(ctx context.Context, userID string) Result {
	args, _ := sjson.Set("", "user_id", userID)

	res := a.registry.Execute(ctx, domain.ToolCall{ToolName: "get_todos", Args: json.RawMessage(args)})
	if !res.Success {
		return Result{
			Response: "Sorry, I couldn't retrieve your todos: " + res.Error,
			Intent:   domain.IntentListTasks,
		}
	}

	todos := gjson.ParseBytes(res.Data).Array()
	if len(todos) == 0 {
		return Result{
			Response:    "You don't have any todos yet.",
			ActionTaken: true,
			Intent:      domain.IntentListTasks,
			Data:        res.Data,
		}
	}

	var b strings.Builder
	b.WriteString("Here are your todos:")
	for _, todo := range todos {
		b.WriteString("\n- ")
		b.WriteString(todo.Get("title").String())
		if todo.Get("is_completed").Bool() {
			b.WriteString(" (completed)")
		}
	}
	return Result{
		Response:    b.String(),
		ActionTaken: true,
		Intent:      domain.IntentListTasks,
		Data:        res.Data,
	}
}

// Title-based lookup of existing tasks is not implemented for the update,
// delete and toggle paths; the update/delete/toggle tools are only reachable
// through the REST API, where the caller supplies the task id. The handlers
// below reply with an explicit limitation message and never touch the store.

func handleUpdate(message string) Result {
	oldTitle, newTitle, ok := ExtractUpdateTitles(message)
	if !ok {
		return Result{
			Response: "I couldn't understand which todo you'd like to update and what to change it to. Please use the format: update 'current title' to 'new title'.",
			Intent:   domain.IntentUpdateTask,
		}
	}
	return Result{
		Response: fmt.Sprintf("I would update the todo '%s' to '%s', but finding todos by title is not fully implemented yet.", oldTitle, newTitle),
		Intent:   domain.IntentUpdateTask,
	}
}

func handleDelete(title string) Result {
	if title == "" {
		return Result{
			Response: "I couldn't understand which todo you'd like to delete. Please be more specific.",
			Intent:   domain.IntentDeleteTask,
		}
	}
	return Result{
		Response: fmt.Sprintf("I would delete the todo '%s', but finding todos by title is not fully implemented yet.", title),
		Intent:   domain.IntentDeleteTask,
	}
}

func handleToggle(title string) Result {
	if title == "" {
		return Result{
			Response: "I couldn't understand which todo you'd like to mark as complete/incomplete. Please be more specific.",
			Intent:   domain.IntentToggleCompletion,
		}
	}
	return Result{
		Response: fmt.Sprintf("I would toggle the completion status of '%s', but finding todos by title is not fully implemented yet.", title),
		Intent:   domain.IntentToggleCompletion,
	}
}

// validationMessage strips the sentinel prefix so the user sees only the
// human-readable part.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
