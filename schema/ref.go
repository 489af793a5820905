package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	errExternalRef  = errors.New("schema: only local references are supported")
	errDanglingRef  = errors.New("schema: reference target not found")
	errRecursiveRef = errors.New("schema: recursive reference cannot be inlined")
)

// resolver inlines local "$ref" pointers against the whole document.
type resolver struct {
	doc []byte
}

// inline returns v with every reference replaced by a copy of its target.
// stack holds the pointers being expanded on the current branch.
func (r *resolver) inline(v any, stack []string) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok {
			return r.follow(ref, stack)
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			c, err := r.inline(child, stack)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			c, err := r.inline(child, stack)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	default:
		return v, nil
	}
}

func (r *resolver) follow(ref string, stack []string) (any, error) {
	if !strings.HasPrefix(ref, "#") {
		return nil, fmt.Errorf("%w: %s", errExternalRef, ref)
	}
	for _, open := range stack {
		if open == ref {
			return nil, fmt.Errorf("%w: %s", errRecursiveRef, ref)
		}
	}

	target := gjson.GetBytes(r.doc, pointerPath(ref))
	if !target.Exists() {
		return nil, fmt.Errorf("%w: %s", errDanglingRef, ref)
	}
	var v any
	if err := json.Unmarshal([]byte(target.Raw), &v); err != nil {
		return nil, err
	}
	return r.inline(v, append(stack, ref))
}

// pointerPath converts a JSON pointer fragment ("#/components/schemas/Pet")
// into a gjson path.
func pointerPath(ref string) string {
	ptr := strings.TrimPrefix(strings.TrimPrefix(ref, "#"), "/")
	if ptr == "" {
		return "@this"
	}
	tokens := strings.Split(ptr, "/")
	for i, tok := range tokens {
		tok = strings.ReplaceAll(tok, "~1", "/")
		tok = strings.ReplaceAll(tok, "~0", "~")
		tokens[i] = escapeComponent(tok)
	}
	return strings.Join(tokens, ".")
}

func escapeComponent(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
