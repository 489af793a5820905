package dispatch

import "fmt"

// InvocationError describes a tool invocation that was not dispatched.
type InvocationError struct {
	Tool   string
	CallID string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("dispatch: %s (%s): %v", e.Tool, e.CallID, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
