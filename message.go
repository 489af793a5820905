package golem

import (
	"encoding/json"
)

// Role is the speaker role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is the canonical conversation unit.
type Message interface {
	Role() Role
}

// UserMessage represents a user input message.
type UserMessage struct {
	Parts []Part `json:"parts,omitempty"`
	// Name identifies the author on multi-user platforms.
	Name      string `json:"name,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (UserMessage) Role() Role { return RoleUser }

func (m UserMessage) MarshalJSON() ([]byte, error) {
	type alias UserMessage
	return json.Marshal(struct {
		Role Role `json:"role"`
		alias
	}{RoleUser, alias(m)})
}

// AssistantMessage represents an assistant response message.
type AssistantMessage struct {
	Parts      []Part     `json:"parts,omitempty"`
	Name       string     `json:"name,omitempty"`
	Timestamp  int64      `json:"timestamp"`
	StopReason StopReason `json:"stop_reason,omitempty"`
}

func (AssistantMessage) Role() Role { return RoleAssistant }

func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	type alias AssistantMessage
	return json.Marshal(struct {
		Role Role `json:"role"`
		alias
	}{RoleAssistant, alias(m)})
}

// ToolCalls returns the tool call parts in order.
func (m AssistantMessage) ToolCalls() []ToolCallPart {
	var calls []ToolCallPart
	for _, part := range m.Parts {
		switch p := part.(type) {
		case ToolCallPart:
			calls = append(calls, p)
		case *ToolCallPart:
			calls = append(calls, *p)
		}
	}
	return calls
}

// ToolResultMessage represents a tool execution result message.
type ToolResultMessage struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	IsError   bool   `json:"is_error,omitempty"`
	Parts     []Part `json:"parts,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (ToolResultMessage) Role() Role { return RoleTool }

func (m ToolResultMessage) MarshalJSON() ([]byte, error) {
	type alias ToolResultMessage
	return json.Marshal(struct {
		Role Role `json:"role"`
		alias
	}{RoleTool, alias(m)})
}

// StopReason explains why generation stopped.
type StopReason string

const (
	StopStop    StopReason = "stop"
	StopLength  StopReason = "length"
	StopToolUse StopReason = "tool_use"
)
