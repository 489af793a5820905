package conversation

import (
	"context"
	"sync"
)

// Store is the node cache and the set of messages still being answered.
// One Store lives for the whole process and is shared by the assembler and
// the renderer.
type Store struct {
	mu     sync.Mutex
	nodes  map[string]*Node
	active map[string]chan struct{}
	// reserved ids are awaited before their answer called Activate.
	reserved map[string]bool
}

func NewStore() *Store {
	return &Store{
		nodes:    map[string]*Node{},
		active:   map[string]chan struct{}{},
		reserved: map[string]bool{},
	}
}

// Node returns the cached node for id.
func (s *Store) Node(id string) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Put caches n unless a node with the same id exists, and returns the cached node.
func (s *Store) Put(n *Node) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.nodes[n.ID]; ok {
		return old
	}
	s.nodes[n.ID] = n
	return n
}

// Replace caches n, overwriting any node with the same id. A parent link of
// the overwritten node carries over when n has none.
func (s *Store) Replace(n *Node) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.nodes[n.ID]; ok && old != n {
		if p := old.Parent(); p != nil {
			n.link(p)
		}
	}
	s.nodes[n.ID] = n
	return n
}

// Len returns the number of cached nodes.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodes)
}

// Link records that child replied to parent. A link is set at most once;
// Link reports whether this call set it.
func (s *Store) Link(child, parent *Node) bool {
	return child.link(parent)
}

// Activate marks id as being answered.
func (s *Store) Activate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, id)
	if _, ok := s.active[id]; !ok {
		s.active[id] = make(chan struct{})
	}
}

// Release clears id and wakes everyone waiting on it.
func (s *Store) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.active[id]; ok {
		close(ch)
		delete(s.active, id)
		delete(s.reserved, id)
	}
}

// IsActive reports whether id is being answered.
func (s *Store) IsActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[id]
	return ok
}

// ActiveCount returns how many messages are being answered.
func (s *Store) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active) - len(s.reserved)
}

// WaitReleased blocks until id is not active or ctx is done.
func (s *Store) WaitReleased(ctx context.Context, id string) error {
	s.mu.Lock()
	ch, ok := s.active[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitAnswered blocks until the answer posted as id is released. Unlike
// WaitReleased it also waits when the answer is visible but not yet
// activated: id is reserved so the later Activate joins the same wait. It
// returns at once when id is cached and not active. A reservation that is
// never activated is dropped when ctx ends.
func (s *Store) WaitAnswered(ctx context.Context, id string) error {
	s.mu.Lock()
	ch, ok := s.active[id]
	if !ok {
		if _, cached := s.nodes[id]; cached {
			s.mu.Unlock()
			return nil
		}
		ch = make(chan struct{})
		s.active[id] = ch
		s.reserved[id] = true
	}
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		if s.reserved[id] {
			close(ch)
			delete(s.active, id)
			delete(s.reserved, id)
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}
