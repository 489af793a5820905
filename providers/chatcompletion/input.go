package chatcompletion

import (
	"github.com/inspirepan/golem"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// BuildParams converts a golem request to chat completion params. Model and
// sampling are left to the caller.
func BuildParams(req golem.GenerateRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{}

	if req.SystemPrompt != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.SystemPrompt))
	}

	for _, msg := range req.History {
		switch m := msg.(type) {
		case golem.UserMessage:
			params.Messages = append(params.Messages, convertUserMessage(m))
		case *golem.UserMessage:
			params.Messages = append(params.Messages, convertUserMessage(*m))
		case golem.AssistantMessage:
			params.Messages = append(params.Messages, convertAssistantMessage(m))
		case *golem.AssistantMessage:
			params.Messages = append(params.Messages, convertAssistantMessage(*m))
		case golem.ToolResultMessage:
			params.Messages = append(params.Messages, convertToolMessage(m))
		case *golem.ToolResultMessage:
			params.Messages = append(params.Messages, convertToolMessage(*m))
		}
	}

	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, convertToolSchema(tool))
	}
	if len(params.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("auto"),
		}
	}

	return params
}

func convertUserMessage(m golem.UserMessage) openai.ChatCompletionMessageParamUnion {
	var parts []openai.ChatCompletionContentPartUnionParam
	images := false

	for _, part := range m.Parts {
		switch p := part.(type) {
		case golem.TextPart:
			parts = append(parts, openai.TextContentPart(p.Text))
		case golem.ImagePart:
			images = true
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL:    p.DataURL(),
				Detail: p.Detail,
			}))
		}
	}

	var msg openai.ChatCompletionMessageParamUnion
	if images {
		msg = openai.UserMessage(parts)
	} else {
		// Text-only servers (mistral, most local models) reject content arrays.
		msg = openai.UserMessage(golem.Text(m.Parts))
	}
	if m.Name != "" {
		msg.OfUser.Name = openai.String(m.Name)
	}
	return msg
}

func convertAssistantMessage(m golem.AssistantMessage) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{}

	if text := golem.Text(m.Parts); text != "" {
		msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(text),
		}
	}
	if m.Name != "" {
		msg.Name = openai.String(m.Name)
	}
	for _, tc := range m.ToolCalls() {
		msg.ToolCalls = append(msg.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.CallID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(tc.ArgsJSON),
				},
			},
		})
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

func convertToolMessage(m golem.ToolResultMessage) openai.ChatCompletionMessageParamUnion {
	return openai.ToolMessage(golem.Text(m.Parts), m.CallID)
}

func convertToolSchema(s golem.ToolSchema) openai.ChatCompletionToolUnionParam {
	return openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
		Name:        s.Name,
		Description: openai.String(s.Description),
		Parameters:  shared.FunctionParameters(s.Parameters),
	})
}
