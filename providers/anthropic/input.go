package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/inspirepan/golem"
)

// BuildParams converts a golem request to Messages API params. Model and
// sampling are left to the caller.
func BuildParams(req golem.GenerateRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{}

	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	for _, msg := range req.History {
		switch m := msg.(type) {
		case golem.UserMessage:
			if blocks := userBlocks(m.Parts); len(blocks) > 0 {
				params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
			}
		case golem.AssistantMessage:
			if blocks := assistantBlocks(m); len(blocks) > 0 {
				params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
			}
		case golem.ToolResultMessage:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.CallID, golem.Text(m.Parts), m.IsError),
			))
		}
	}

	for _, s := range req.Tools {
		params.Tools = append(params.Tools, convertToolSchema(s))
	}
	if len(params.Tools) > 0 {
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
	return params
}

func userBlocks(parts []golem.Part) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range parts {
		switch p := part.(type) {
		case golem.TextPart:
			if strings.TrimSpace(p.Text) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(p.Text))
			}
		case golem.ImagePart:
			if p.DataB64 != "" {
				blocks = append(blocks, anthropic.NewImageBlockBase64(p.MimeType, p.DataB64))
			} else {
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: p.URL}))
			}
		}
	}
	return blocks
}

func assistantBlocks(m golem.AssistantMessage) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	if text := golem.Text(m.Parts); strings.TrimSpace(text) != "" {
		blocks = append(blocks, anthropic.NewTextBlock(text))
	}
	for _, tc := range m.ToolCalls() {
		var input any = map[string]any{}
		if len(tc.ArgsJSON) > 0 {
			input = json.RawMessage(tc.ArgsJSON)
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(tc.CallID, input, tc.Name))
	}
	return blocks
}

func convertToolSchema(s golem.ToolSchema) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{Properties: s.Parameters["properties"]}
	switch req := s.Parameters["required"].(type) {
	case []string:
		schema.Required = req
	case []any:
		for _, r := range req {
			if name, ok := r.(string); ok {
				schema.Required = append(schema.Required, name)
			}
		}
	}
	return anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
		Name:        s.Name,
		Description: anthropic.String(s.Description),
		InputSchema: schema,
	}}
}
