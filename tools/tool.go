// Package tools implements the named task operations the agent dispatches
// to, plus the registry that executes them.
package tools

import (
	"context"
	"encoding/json"
)

// Tool is a named, independently invocable operation. Args arrive as a JSON
// document; Validate runs before Run and never touches the store.
type Tool interface {
	Name() string
	Validate(args json.RawMessage) error
	Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}
