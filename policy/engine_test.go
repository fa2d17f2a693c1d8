package policy

import (
	"context"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(context.Background(), DefaultPolicy)
	if err != nil {
		t.Fatalf("failed to create policy engine: %v", err)
	}
	return e
}

func TestDefaultPolicyAllowsIdentifiedCall(t *testing.T) {
	e := newTestEngine(t)

	decision, _, err := e.Evaluate(context.Background(), map[string]any{
		"tool_name": "create_todo",
		"user_id":   "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		"args":      map[string]any{"title": "buy milk"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != "allow" {
		t.Fatalf("decision = %q, want allow", decision)
	}
}

func TestDefaultPolicyBlocksAnonymousCall(t *testing.T) {
	e := newTestEngine(t)

	for name, input := range map[string]map[string]any{
		"missing user_id": {"tool_name": "create_todo"},
		"empty user_id":   {"tool_name": "create_todo", "user_id": ""},
	} {
		decision, _, err := e.Evaluate(context.Background(), input)
		if err != nil {
			t.Fatalf("%s: Evaluate failed: %v", name, err)
		}
		if decision != "block" {
			t.Fatalf("%s: decision = %q, want block", name, decision)
		}
	}
}
