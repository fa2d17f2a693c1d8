package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/tidwall/gjson"

	"todochat/domain"
	"todochat/policy"
	"todochat/store"
)

// Registry stores tools keyed by name and executes ToolCalls against them.
// It is built once at process start and holds no per-request state, so a
// single instance is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	engine *policy.Engine
}

// NewRegistry creates an empty tool registry. engine may be nil, in which
// case no policy gate is applied.
func NewRegistry(engine *policy.Engine) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		engine: engine,
	}
}

// NewTaskRegistry creates a registry with the full task tool set registered.
func NewTaskRegistry(st store.Store, engine *policy.Engine) *Registry {
	r := NewRegistry(engine)
	for _, t := range []Tool{
		NewCreateTodoTool(st),
		NewGetTodosTool(st),
		NewUpdateTodoTool(st),
		NewDeleteTodoTool(st),
		NewToggleTodoCompletionTool(st),
	} {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool. Registration happens during startup only; the
// registry is treated as immutable afterwards.
func (r *Registry) Register(t Tool) error {
	if t == nil || t.Name() == "" {
		return fmt.Errorf("tool name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool already registered for %s", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// List returns the registered tool names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs a ToolCall and wraps the outcome in a ToolResult. It never
// returns an error or panics: an unknown tool, a blocked call, a validation
// failure, or a fault inside the tool all come back as Success=false.
func (r *Registry) Execute(ctx context.Context, call domain.ToolCall) domain.ToolResult {
	r.mu.RLock()
	t := r.tools[call.ToolName]
	r.mu.RUnlock()
	if t == nil {
		return domain.ToolResult{Success: false, Error: fmt.Sprintf("tool '%s' not found", call.ToolName)}
	}

	if r.engine != nil {
		decision, reason, err := r.engine.Evaluate(ctx, policyInput(call))
		if err != nil {
			log.Printf("ERROR: policy evaluation failed for %s: %v", call.ToolName, err)
			return domain.ToolResult{Success: false, Error: "policy evaluation failed"}
		}
		if decision == "block" {
			msg := "blocked by policy"
			if reason != "" {
				msg += ": " + reason
			}
			return domain.ToolResult{Success: false, Error: msg}
		}
	}

	if err := t.Validate(call.Args); err != nil {
		return domain.ToolResult{Success: false, Error: err.Error()}
	}

	data, err := r.invoke(ctx, t, call.Args)
	if err != nil {
		return domain.ToolResult{Success: false, Error: err.Error()}
	}
	return domain.ToolResult{Success: true, Data: data}
}

// invoke runs the tool, converting a panic into an error so nothing
// escapes the dispatch boundary.
func (r *Registry) invoke(ctx context.Context, t Tool, args json.RawMessage) (data json.RawMessage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("ERROR: tool %s panicked: %v", t.Name(), rec)
			err = fmt.Errorf("%w: tool %s panicked: %v", domain.ErrToolExecution, t.Name(), rec)
		}
	}()
	return t.Run(ctx, args)
}

func policyInput(call domain.ToolCall) map[string]any {
	argsMap := map[string]any{}
	if len(call.Args) > 0 {
		if parsed, ok := gjson.ParseBytes(call.Args).Value().(map[string]any); ok {
			argsMap = parsed
		}
	}
	return map[string]any{
		"tool_name": call.ToolName,
		"user_id":   gjson.GetBytes(call.Args, "user_id").String(),
		"args":      argsMap,
	}
}
