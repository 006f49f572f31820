// Package reasoning defines the provider-neutral contract for the language
// reasoning service. Concrete providers live in sibling packages.
// This is part of the platform layer and contains no business logic.
package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single entry of the prompt transcript.
type Message struct {
	Role       Role
	Content    string
	Name       string     // tool name, for RoleTool messages
	ToolCallID string     // correlates a RoleTool message with its call
	ToolCalls  []ToolCall // calls issued by a RoleAssistant message
}

// ToolCall is an action request emitted by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// Tool declares an action the model may request.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema for the arguments
}

// Request is one completion call.
type Request struct {
	Messages    []Message
	Tools       []Tool
	Temperature float64
	MaxTokens   int
	ForceJSON   bool // constrain the output to a JSON object where supported
}

// Result is the model's reply: either text, tool calls, or both.
// A null model payload normalizes to an empty Text.
type Result struct {
	Text      string
	ToolCalls []ToolCall
}

// AssistantMessage converts the result back into a transcript message so the
// caller can continue the same conversation with tool outputs appended.
func (r *Result) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   r.Text,
		ToolCalls: r.ToolCalls,
	}
}

// ToolResultMessage builds the transcript entry for a completed tool call.
func ToolResultMessage(call ToolCall, output string) Message {
	return Message{
		Role:       RoleTool,
		Name:       call.Name,
		ToolCallID: call.ID,
		Content:    output,
	}
}

// Reasoner is the capability interface every provider implements.
type Reasoner interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Result, error)
}

// ErrRateLimited marks a provider refusal that is safe to retry after a delay.
var ErrRateLimited = errors.New("reasoning: rate limited")

// TransientError wraps a provider fault that a retry may clear.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("reasoning: transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IsRetryable reports whether the caller should retry the completion.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var transient *TransientError
	return errors.As(err, &transient)
}

// StripCodeFences removes a surrounding markdown code fence from model output.
// Models asked for raw JSON frequently wrap it in ```json ... ``` anyway.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence line.
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
