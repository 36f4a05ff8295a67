// Package domain holds the conversation types shared across the agent.
package domain

import "time"

// Role constants for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a model request to invoke a named tool. The ID is assigned by
// the model service and is unique within one orchestration round.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// Turn is one persisted message in a per-user conversation. Turns are
// immutable once written and ordered by creation time.
//
// A tool turn carries ToolCallID and ToolName; an assistant turn carrying
// ToolCalls may have empty content.
type Turn struct {
	ID         int64      `json:"id,omitempty"`
	UserID     string     `json:"userId"`
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	ToolName   string     `json:"toolName,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// LogEntry is a raw journal entry as submitted by the user.
type LogEntry struct {
	ID        int64     `json:"id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
