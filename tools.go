package golem

import (
	"encoding/json"
	"fmt"
)

// ToolSchema is the declarative tool shape exposed to the model.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolInvocation is a model request to call one tool.
type ToolInvocation struct {
	CallID   string
	Name     string
	ArgsJSON json.RawMessage
}

// ToolResult is the outcome of one dispatched invocation. Exactly one of
// Body and Failure is meaningful: Failure is set when the call did not
// produce a usable response.
type ToolResult struct {
	CallID  string
	Name    string
	Body    any
	Failure string
}

// Failed reports whether the result carries a failure descriptor.
func (r ToolResult) Failed() bool { return r.Failure != "" }

// String renders the result the way it is fed back to the model.
func (r ToolResult) String() string {
	if r.Failed() {
		return r.Failure
	}
	switch b := r.Body.(type) {
	case nil:
		return ""
	case string:
		return b
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return fmt.Sprint(r.Body)
	}
	return string(data)
}

// Message converts the result into a tool-role history entry.
func (r ToolResult) Message(timestamp int64) ToolResultMessage {
	return ToolResultMessage{
		CallID:    r.CallID,
		Name:      r.Name,
		IsError:   r.Failed(),
		Parts:     []Part{TextPart{Text: r.String()}},
		Timestamp: timestamp,
	}
}

// Invocations lists the tool calls requested by an assistant message.
func Invocations(msg AssistantMessage) []ToolInvocation {
	calls := msg.ToolCalls()
	out := make([]ToolInvocation, 0, len(calls))
	for _, c := range calls {
		out = append(out, ToolInvocation(c))
	}
	return out
}
