// Package agent implements the conversation orchestrator and its tools.
package agent

import (
	"context"
	"encoding/json"

	"github.com/genoeg/kotori/internal/llm"
)

// Outcome is the result of a tool execution. Tool failures are data, not
// errors: a failed outcome goes back to the model so it can explain the
// problem to the user, it never aborts the conversation.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK builds a successful outcome with a user-facing message.
func OK(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// Fail builds a failed outcome with an error description.
func Fail(err error) Outcome {
	return Outcome{Success: false, Error: err.Error()}
}

// JSON renders the outcome for the model.
func (o Outcome) JSON() string {
	data, err := json.Marshal(o)
	if err != nil {
		return `{"success":false,"error":"internal encoding failure"}`
	}
	return string(data)
}

// Tool is a capability the agent can invoke during a conversation.
type Tool interface {
	// Name returns the tool's identifier.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the JSON Schema for the tool's arguments.
	Parameters() json.RawMessage

	// Execute runs the tool with the given JSON arguments.
	Execute(ctx context.Context, args json.RawMessage) Outcome
}

// Registry holds available tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Invoke runs the named tool. An unknown name is a failed outcome, not an
// error, so the model can recover in its follow-up response.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) Outcome {
	t, ok := r.tools[name]
	if !ok {
		return Outcome{Success: false, Error: "unknown tool: " + name}
	}
	return t.Execute(ctx, args)
}

// Definitions returns model-ready tool definitions in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return defs
}
