package chatcompletion

import (
	"encoding/json"
	"time"

	"github.com/inspirepan/golem"
	"github.com/openai/openai-go/v3"
)

// ConvertResponse turns a non-streaming completion into an assistant message.
func ConvertResponse(resp *openai.ChatCompletion) golem.AssistantMessage {
	msg := golem.AssistantMessage{Timestamp: time.Now().UnixMilli(), StopReason: golem.StopStop}
	if resp == nil || len(resp.Choices) == 0 {
		return msg
	}

	choice := resp.Choices[0]
	msg.StopReason = mapFinishReason(choice.FinishReason)
	if choice.Message.Content != "" {
		msg.Parts = append(msg.Parts, golem.TextPart{Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		if tc.ID == "" || tc.Function.Name == "" {
			continue
		}
		msg.Parts = append(msg.Parts, golem.ToolCallPart{
			CallID:   tc.ID,
			Name:     tc.Function.Name,
			ArgsJSON: json.RawMessage(tc.Function.Arguments),
		})
	}
	return msg
}

func mapFinishReason(reason string) golem.StopReason {
	switch reason {
	case "length":
		return golem.StopLength
	case "tool_calls", "function_call":
		return golem.StopToolUse
	default:
		return golem.StopStop
	}
}
