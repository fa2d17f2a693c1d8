package domain

import "encoding/json"

// Intent is the classified purpose of a user message. Intents are pure
// classification output and are never persisted.
type Intent string

const (
	IntentCreateTask       Intent = "create_task"
	IntentListTasks        Intent = "list_tasks"
	IntentUpdateTask       Intent = "update_task"
	IntentDeleteTask       Intent = "delete_task"
	IntentToggleCompletion Intent = "toggle_completion"
	IntentUnknown          Intent = "unknown"
)

// ToolCall names a registered tool and carries its JSON arguments. It is
// constructed by the agent and consumed exactly once by the registry.
type ToolCall struct {
	ToolName string          `json:"tool_name"`
	Args     json.RawMessage `json:"args,omitempty"`
}

// ToolResult is the envelope every tool call returns instead of raising.
// Immutable after construction.
type ToolResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}
