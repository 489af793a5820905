// Package schema compiles an OpenAPI description into tool schemas the
// model can select from.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/inspirepan/golem"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrDuplicateIdentifier marks an operation whose identifier was already compiled.
var ErrDuplicateIdentifier = errors.New("schema: duplicate operation identifier")

var operationMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// CompileError describes one operation that was left out of the compiled set.
type CompileError struct {
	Path   string
	Method string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("schema: %s %s: %v", strings.ToUpper(e.Method), e.Path, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// Compile turns every (path, method) operation of doc into a ToolSchema, in
// document order. Operations that cannot be compiled are skipped; the
// returned error joins one *CompileError per skipped operation and is nil
// when every operation compiled.
func Compile(doc []byte) ([]golem.ToolSchema, error) {
	if !gjson.ValidBytes(doc) {
		return nil, errors.New("schema: description is not valid JSON")
	}

	var (
		schemas []golem.ToolSchema
		errs    []error
		seen    = map[string]bool{}
	)
	r := &resolver{doc: doc}

	gjson.GetBytes(doc, "paths").ForEach(func(path, item gjson.Result) bool {
		item.ForEach(func(method, op gjson.Result) bool {
			m := strings.ToLower(method.String())
			if !operationMethods[m] {
				return true
			}
			ts, err := compileOperation(r, op)
			if err == nil && seen[ts.Name] {
				err = fmt.Errorf("%w: %s", ErrDuplicateIdentifier, ts.Name)
			}
			if err != nil {
				errs = append(errs, &CompileError{Path: path.String(), Method: m, Err: err})
				return true
			}
			seen[ts.Name] = true
			schemas = append(schemas, ts)
			return true
		})
		return true
	})

	return schemas, errors.Join(errs...)
}

func compileOperation(r *resolver, op gjson.Result) (golem.ToolSchema, error) {
	var raw any
	if err := json.Unmarshal([]byte(op.Raw), &raw); err != nil {
		return golem.ToolSchema{}, err
	}
	resolved, err := r.inline(raw, nil)
	if err != nil {
		return golem.ToolSchema{}, err
	}
	operation, ok := resolved.(map[string]any)
	if !ok {
		return golem.ToolSchema{}, errors.New("operation is not an object")
	}

	name, _ := operation["operationId"].(string)
	if name == "" {
		return golem.ToolSchema{}, golem.ErrMissingIdentifier
	}

	desc, _ := operation["description"].(string)
	if desc == "" {
		desc, _ = operation["summary"].(string)
	}

	shape := []byte(`{"type":"object","properties":{}}`)

	if body := requestBodySchema(operation); body != nil {
		if shape, err = sjson.SetBytes(shape, "properties.requestBody", body); err != nil {
			return golem.ToolSchema{}, err
		}
	}

	if props := parameterShapes(operation); len(props) > 0 {
		shape, err = sjson.SetBytes(shape, "properties.parameters", map[string]any{
			"type":       "object",
			"properties": props,
		})
		if err != nil {
			return golem.ToolSchema{}, err
		}
	}

	var params map[string]any
	if err := json.Unmarshal(shape, &params); err != nil {
		return golem.ToolSchema{}, err
	}

	return golem.ToolSchema{Name: name, Description: desc, Parameters: params}, nil
}

// requestBodySchema returns the JSON body schema, or nil when there is none
// or it is an empty object.
func requestBodySchema(operation map[string]any) any {
	body, _ := operation["requestBody"].(map[string]any)
	content, _ := body["content"].(map[string]any)
	media, _ := content["application/json"].(map[string]any)
	s := media["schema"]
	if m, ok := s.(map[string]any); ok && len(m) == 0 {
		return nil
	}
	return s
}

func parameterShapes(operation map[string]any) map[string]any {
	list, _ := operation["parameters"].([]any)
	props := map[string]any{}
	for _, item := range list {
		p, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := p["name"].(string)
		s, has := p["schema"]
		if name == "" || !has {
			continue
		}
		props[name] = s
	}
	return props
}
