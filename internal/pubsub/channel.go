// Package pubsub fans messages out to per-topic subscribers.
package pubsub

import "sync"

const defaultBuffer = 1000

// Channel is an in-process topic broker. Slow subscribers drop messages
// rather than block publishers.
type Channel[T any] struct {
	subscriptions map[string][]chan T
	buffer        int
	mu            sync.RWMutex
}

// NewChannel returns a broker whose subscriber channels hold buffer messages.
// A non-positive buffer uses the default.
func NewChannel[T any](buffer int) *Channel[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Channel[T]{
		subscriptions: map[string][]chan T{},
		buffer:        buffer,
	}
}

// Subscribe registers a subscriber on topic. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (p *Channel[T]) Subscribe(topic string) (<-chan T, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan T, p.buffer)
	p.subscriptions[topic] = append(p.subscriptions[topic], ch)

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			subs := p.subscriptions[topic]
			for i, c := range subs {
				if c == ch {
					p.subscriptions[topic] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(p.subscriptions[topic]) == 0 {
				delete(p.subscriptions, topic)
			}
			close(ch)
		})
	}
}

// Publish delivers message to every subscriber of topic and returns how many
// received it.
func (p *Channel[T]) Publish(topic string, message T) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	delivered := 0
	for _, ch := range p.subscriptions[topic] {
		select {
		case ch <- message:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers returns the number of subscribers on topic.
func (p *Channel[T]) Subscribers(topic string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions[topic])
}
