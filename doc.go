// Package golem holds the conversation types shared by the tool-calling chat
// bot: messages and parts, tool schemas, invocations and results, and the
// provider contract used for both tool selection and streamed answers.
//
// The moving pieces live in subpackages:
//
//   - schema compiles an OpenAPI description into ToolSchemas.
//   - dispatch lets the model pick tools and calls their HTTP endpoints.
//   - conversation rebuilds bounded history from a reply graph.
//   - render streams an answer into size-bounded, rate-limited message edits.
//   - orchestrator sequences one turn end to end.
package golem
