// Package policy evaluates a guardrail policy before any tool dispatch.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	// The policy text uses the `if` keyword, so the module must be parsed
	// as Rego v1; the Go API still defaults to v0 parsing.
	r := rego.New(
		rego.Query("data.tool_policy.decision"),
		rego.Module("tool_policy.rego", policyContent),
		rego.SetRegoVersion(ast.RegoV1),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks the tool policy.
// Input is a map with keys: tool_name, user_id, args.
// Returns the decision ("allow" or "block") and an optional reason.
func (e *Engine) Evaluate(ctx context.Context, input any) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "allow", "default", nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, "", nil
	}

	return "allow", "unexpected return type", nil
}

// DefaultPolicy allows every tool call that carries the caller's user id.
// Every task tool acts on behalf of a user, so an anonymous call is a
// wiring bug and gets blocked before it reaches the store.
const DefaultPolicy = `
package tool_policy

default decision := "allow"

decision := "block" if {
	not input.user_id
}

decision := "block" if {
	input.user_id == ""
}
`
