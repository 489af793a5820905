package golem

import "errors"

var (
	ErrNoProvider = errors.New("golem: provider is required")

	// ErrMissingIdentifier marks an API operation without an operationId.
	ErrMissingIdentifier = errors.New("golem: operation has no identifier")

	// ErrMalformedArguments marks a tool invocation whose arguments carry no request body.
	ErrMalformedArguments = errors.New("golem: malformed tool arguments")

	// ErrRemoteCall marks an HTTP or transport failure while calling a tool endpoint.
	ErrRemoteCall = errors.New("golem: remote call failed")

	// ErrChainEnd marks the expected end of a conversation walk.
	ErrChainEnd = errors.New("golem: reply chain ended")

	// ErrPlatform marks a chat platform fetch, send or edit failure.
	ErrPlatform = errors.New("golem: platform communication failed")
)
