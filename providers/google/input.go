package google

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/inspirepan/golem"
	"google.golang.org/genai"
)

// BuildConfig sets the system instruction and tools of req. Sampling is
// left to the caller.
func BuildConfig(req golem.GenerateRequest) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, s := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 s.Name,
				Description:          s.Description,
				ParametersJsonSchema: s.Parameters,
			})
		}
		gc.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
		gc.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAuto},
		}
	}
	return gc
}

// BuildContents converts history into Gemini contents. Tool results are sent
// back as user function responses.
func BuildContents(history []golem.Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, msg := range history {
		switch m := msg.(type) {
		case golem.UserMessage:
			parts, err := userParts(m.Parts)
			if err != nil {
				return nil, err
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
			}
		case golem.AssistantMessage:
			var parts []*genai.Part
			if text := golem.Text(m.Parts); strings.TrimSpace(text) != "" {
				parts = append(parts, &genai.Part{Text: text})
			}
			for _, tc := range m.ToolCalls() {
				args := map[string]any{}
				if len(tc.ArgsJSON) > 0 {
					if err := json.Unmarshal(tc.ArgsJSON, &args); err != nil {
						return nil, fmt.Errorf("google: tool call %s: %w", tc.Name, err)
					}
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.CallID, Name: tc.Name, Args: args}})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}
		case golem.ToolResultMessage:
			key := "output"
			if m.IsError {
				key = "error"
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.CallID,
					Name:     m.Name,
					Response: map[string]any{key: golem.Text(m.Parts)},
				},
			}}})
		}
	}
	return contents, nil
}

func userParts(parts []golem.Part) ([]*genai.Part, error) {
	var out []*genai.Part
	for _, part := range parts {
		switch p := part.(type) {
		case golem.TextPart:
			if strings.TrimSpace(p.Text) != "" {
				out = append(out, &genai.Part{Text: p.Text})
			}
		case golem.ImagePart:
			if p.DataB64 != "" {
				data, err := base64.StdEncoding.DecodeString(p.DataB64)
				if err != nil {
					return nil, fmt.Errorf("google: image data: %w", err)
				}
				out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: p.MimeType, Data: data}})
				continue
			}
			out = append(out, &genai.Part{FileData: &genai.FileData{FileURI: p.URL, MIMEType: p.MimeType}})
		}
	}
	return out, nil
}

func marshalArgs(args map[string]any) (json.RawMessage, error) {
	if args == nil {
		return json.RawMessage(`{}`), nil
	}
	return json.Marshal(args)
}
