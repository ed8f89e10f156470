package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Topic identifies a class of lifecycle notifications.
type Topic string

const (
	TopicConversationStarted Topic = "conversation:started"
	TopicMessageAdded        Topic = "message:added"
	TopicConversationEnded   Topic = "conversation:ended"
	TopicEventGenerated      Topic = "eventGenerated"
	TopicEventResolved       Topic = "eventResolved"
)

// Notification is a typed, fire-and-forget lifecycle record.
type Notification struct {
	Topic     Topic       `json:"topic"`
	Title     string      `json:"title"`
	Body      string      `json:"body"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// subscription is one subscriber's buffered delivery channel plus its
// topic filter (empty filter means all topics).
type subscription struct {
	ch     chan Notification
	topics map[Topic]struct{}
}

// Bus fans notifications out to subscribers. It is constructed
// explicitly and injected into every producer; publishing never blocks:
// a subscriber whose buffer is full misses the notification.
type Bus struct {
	subs   []*subscription
	mu     sync.RWMutex
	logger *zap.Logger
}

// subscriberBuffer is the per-subscriber channel depth.
const subscriberBuffer = 64

// NewBus creates an empty notification bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe returns a channel receiving notifications for the given
// topics, or for every topic when none are named.
func (b *Bus) Subscribe(topics ...Topic) <-chan Notification {
	sub := &subscription{ch: make(chan Notification, subscriberBuffer)}
	if len(topics) > 0 {
		sub.topics = make(map[Topic]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub.ch
}

// Publish delivers a notification to every matching subscriber without
// blocking the caller.
func (b *Bus) Publish(n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.topics != nil {
			if _, ok := sub.topics[n.Topic]; !ok {
				continue
			}
		}
		select {
		case sub.ch <- n:
		default:
			b.logger.Warn("notification dropped, subscriber buffer full",
				zap.String("topic", string(n.Topic)))
		}
	}
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
