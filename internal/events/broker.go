// Package events provides an in-process publish/subscribe broker used to
// push "something changed" notifications to long-lived observers such as an
// open task list. Delivery is best effort: a slow subscriber drops events
// rather than blocking writers, since stale reads self-heal on next fetch.
package events

import (
	"sync"
	"time"
)

// Topics published by the task state machine.
const (
	TopicTasks     = "tasks"
	TopicAssignees = "assignees"
	TopicApprovals = "approvals"
)

// Event is a change notification. It carries the affected entity id and the
// kind of change, not the changed data itself; observers re-fetch.
type Event struct {
	Topic    string    `json:"topic"`
	Action   string    `json:"action"` // created, updated, deleted, responded
	EntityID string    `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Broker fans events out to subscribers per topic.
// The zero value is not usable; construct with NewBroker.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber for a topic and returns its channel
// together with a cancel function. The channel is buffered; events that
// arrive while the buffer is full are dropped for that subscriber.
func (b *Broker) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan Event]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[topic]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
		}
		b.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers an event to every current subscriber of its topic.
// Never blocks the caller.
func (b *Broker) Publish(topic, action, entityID string) {
	ev := Event{
		Topic:    topic,
		Action:   action,
		EntityID: entityID,
		At:       time.Now().UTC(),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[topic] {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full, drop
		}
	}
}

// SubscriberCount returns the number of active subscribers for a topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
