// Package eventing fans session activities out to live observers. The board
// API is the durable record; this bus exists for ephemeral consumers such as
// the WebSocket feed, which want to watch turns as they happen and can
// tolerate missing items. The bus is nil-safe: publishing on a nil *Bus is a
// no-op, so callers do not need guard checks.
package eventing

import (
	"sync"
	"time"

	"github.com/boardpilot/boardpilot/agent"
)

// Item is one published activity together with where and when it happened.
type Item struct {
	Timestamp time.Time      `json:"ts"`
	SessionID string         `json:"session_id"`
	Activity  agent.Activity `json:"activity"`
}

// Bus is a non-blocking broadcast bus. Subscribers receive items on buffered
// channels; a slow subscriber misses items rather than blocking the session
// loop.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Item]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe back to
	// the bidirectional channel stored in subs, so Unsubscribe can accept
	// <-chan Item (the caller's view) without an illegal type conversion.
	recvToSend map[<-chan Item]chan Item
}

// NewBus creates an empty bus ready for use.
func NewBus() *Bus {
	return &Bus{
		subs:       make(map[chan Item]struct{}),
		recvToSend: make(map[<-chan Item]chan Item),
	}
}

// Publish sends an item to all subscribers. Non-blocking: if a subscriber's
// channel is full the item is dropped for that subscriber. Safe to call on a
// nil receiver.
func (b *Bus) Publish(item Item) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- item:
		default:
			// Subscriber is full; drop rather than block the turn.
		}
	}
}

// Subscribe returns a channel that receives published items. The caller must
// eventually call Unsubscribe to avoid resource leaks. bufSize controls the
// channel buffer; 64 is a reasonable default for WebSocket consumers.
func (b *Bus) Subscribe(bufSize int) <-chan Item {
	ch := make(chan Item, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to call
// with a channel that is already unsubscribed.
func (b *Bus) Unsubscribe(ch <-chan Item) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
