package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/inspirepan/golem"
	"github.com/tidwall/gjson"
)

// bodyShapes are the argument layouts a request body may arrive in, tried in
// order. The last one is the shape the compiled schema itself advertises.
var bodyShapes = []string{
	"parameters.body",
	"body",
	"requestBody",
}

// DecodeBody extracts the request body from a tool invocation's arguments.
// It fails with golem.ErrMalformedArguments when no known shape matches.
func DecodeBody(args json.RawMessage) (json.RawMessage, error) {
	if len(args) == 0 || !gjson.ValidBytes(args) {
		return nil, fmt.Errorf("%w: arguments are not valid JSON", golem.ErrMalformedArguments)
	}
	for _, path := range bodyShapes {
		if r := gjson.GetBytes(args, path); r.Exists() {
			return json.RawMessage(r.Raw), nil
		}
	}
	return nil, fmt.Errorf("%w: no request body found", golem.ErrMalformedArguments)
}
