// Package broadcast fans out pipeline events to stream subscribers. The hub
// owns the subscriber set in a single run loop; transports (the websocket
// handler) attach through Subscribe and pump the subscription channel.
package broadcast

import (
	"sync/atomic"

	"visionserver/internal/logger"
	"visionserver/internal/model"
)

const subscriberBuffer = 256

// Subscription is one subscriber's event feed. C is closed on unsubscribe
// and on hub shutdown. A subscription cannot be restarted; reconnecting
// clients subscribe again and receive a fresh log replay.
type Subscription struct {
	C chan model.Event
}

// Hub broadcasts events to all current subscribers in publish order.
// Delivery is best-effort: a subscriber that cannot keep up has events
// dropped rather than stalling the pipeline.
type Hub struct {
	logs *logger.Logger

	register   chan *Subscription
	unregister chan *Subscription
	publish    chan model.Event
	done       chan struct{}

	dropped uint64
}

func NewHub(logs *logger.Logger) *Hub {
	return &Hub{
		logs:       logs,
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		publish:    make(chan model.Event, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the subscriber map until Stop. Registration and publication are
// serialized here, so a new subscriber always receives its log replay before
// any event published after it registered.
func (h *Hub) Run() {
	subscribers := make(map[*Subscription]bool)

	for {
		select {
		case sub := <-h.register:
			// Replay goes first into the empty subscription buffer.
			sub.C <- model.Event{
				Name: model.EventLogHistory,
				Data: model.LogHistoryPayload{Logs: h.logs.Snapshot()},
			}
			subscribers[sub] = true

		case sub := <-h.unregister:
			if subscribers[sub] {
				delete(subscribers, sub)
				close(sub.C)
			}

		case event := <-h.publish:
			for sub := range subscribers {
				select {
				case sub.C <- event:
				default:
					atomic.AddUint64(&h.dropped, 1)
				}
			}

		case <-h.done:
			for sub := range subscribers {
				close(sub.C)
			}
			return
		}
	}
}

// Subscribe registers a new subscriber and returns its feed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan model.Event, subscriberBuffer)}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.C)
	}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish sends an event to every current subscriber.
func (h *Hub) Publish(event model.Event) {
	select {
	case h.publish <- event:
	case <-h.done:
	}
}

// Dropped reports how many events were discarded for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// Stop shuts the hub down and closes all subscriptions.
func (h *Hub) Stop() {
	close(h.done)
}
