package golem

import (
	"encoding/json"
	"strings"
)

// PartType describes the kind of content in a part.
type PartType string

const (
	PartText     PartType = "text"
	PartImage    PartType = "image"
	PartToolCall PartType = "tool_call"
)

// Part is a structured message fragment.
type Part interface {
	partType() PartType
}

// TextPart represents text content.
type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) partType() PartType { return PartText }

func (p TextPart) MarshalJSON() ([]byte, error) {
	type alias TextPart
	return json.Marshal(struct {
		Type PartType `json:"type"`
		alias
	}{PartText, alias(p)})
}

// ImagePart represents image content, either by URL or inline base64 data.
type ImagePart struct {
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	DataB64  string `json:"data_b64,omitempty"`
	// Detail is the vision fidelity hint, e.g. "low".
	Detail string `json:"detail,omitempty"`
}

func (ImagePart) partType() PartType { return PartImage }

func (p ImagePart) MarshalJSON() ([]byte, error) {
	type alias ImagePart
	return json.Marshal(struct {
		Type PartType `json:"type"`
		alias
	}{PartImage, alias(p)})
}

// DataURL returns the URL if set, otherwise a data: URL built from the inline bytes.
func (p ImagePart) DataURL() string {
	if p.URL != "" {
		return p.URL
	}
	return "data:" + p.MimeType + ";base64," + p.DataB64
}

// ToolCallPart represents a tool call request.
type ToolCallPart struct {
	CallID   string          `json:"call_id"`
	Name     string          `json:"name"`
	ArgsJSON json.RawMessage `json:"args_json,omitempty"`
}

func (ToolCallPart) partType() PartType { return PartToolCall }

func (p ToolCallPart) MarshalJSON() ([]byte, error) {
	type alias ToolCallPart
	return json.Marshal(struct {
		Type PartType `json:"type"`
		alias
	}{PartToolCall, alias(p)})
}

// Text concatenates the text parts, ignoring everything else.
func Text(parts []Part) string {
	var b strings.Builder
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			b.WriteString(p.Text)
		case *TextPart:
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// FirstText returns the first text part, or "" when there is none.
func FirstText(parts []Part) string {
	for _, part := range parts {
		switch p := part.(type) {
		case TextPart:
			return p.Text
		case *TextPart:
			return p.Text
		}
	}
	return ""
}
