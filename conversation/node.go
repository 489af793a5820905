// Package conversation keeps processed messages and rebuilds the bounded
// reply chain handed to the model.
package conversation

import (
	"sync/atomic"

	"github.com/inspirepan/golem"
)

// Node is one processed chat message.
type Node struct {
	ID     string
	Role   golem.Role
	Parts  []golem.Part
	Author string
	// TooManyAttachments is set when images were dropped to honor the per-message cap.
	TooManyAttachments bool

	parent atomic.Pointer[Node]
}

// Parent returns the node this one replied to, or nil.
func (n *Node) Parent() *Node { return n.parent.Load() }

// link sets the parent once and reports whether it did.
func (n *Node) link(p *Node) bool {
	if p == nil || p == n {
		return false
	}
	return n.parent.CompareAndSwap(nil, p)
}

// Text returns the node's text content.
func (n *Node) Text() string { return golem.Text(n.Parts) }

// Message converts the node into a model history entry.
func (n *Node) Message() golem.Message {
	if n.Role == golem.RoleAssistant {
		return golem.AssistantMessage{Parts: n.Parts, Name: n.Author}
	}
	return golem.UserMessage{Parts: n.Parts, Name: n.Author}
}
