package eventing

import (
	"context"
	"sync"
	"time"

	"github.com/boardpilot/boardpilot/agent"
)

// BusSink adapts a Bus to the loop's sink interface. Broadcasting never
// fails, so Publish always returns nil; durability is some other sink's job.
type BusSink struct {
	bus *Bus
}

func NewBusSink(bus *Bus) *BusSink {
	return &BusSink{bus: bus}
}

func (s *BusSink) Publish(ctx context.Context, sessionID string, activity agent.Activity) error {
	s.bus.Publish(Item{
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Activity:  activity,
	})
	return nil
}

// Tee publishes each activity to every sink in order. The first failure is
// returned and the remaining sinks are skipped, so a durable sink placed
// first gates the best-effort ones behind it.
type Tee []agent.ActivitySink

func (t Tee) Publish(ctx context.Context, sessionID string, activity agent.Activity) error {
	for _, sink := range t {
		if err := sink.Publish(ctx, sessionID, activity); err != nil {
			return err
		}
	}
	return nil
}

// Recorder is an in-memory sink for tests and the local console. It keeps
// every item in publication order.
type Recorder struct {
	mu    sync.Mutex
	items []Item
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, sessionID string, activity agent.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Item{
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Activity:  activity,
	})
	return nil
}

// Items returns a copy of everything recorded so far.
func (r *Recorder) Items() []Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}
