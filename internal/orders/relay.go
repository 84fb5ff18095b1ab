package orders

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Publisher sends one event payload keyed by its order id.
type Publisher interface {
	Publish(ctx context.Context, key string, payload json.RawMessage) error
}

// Relay publishes unsent order events in id order and marks them sent.
// Events that fail to publish stay unsent and are retried on the next tick.
type Relay struct {
	store     EventStore
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(store EventStore, publisher Publisher, interval time.Duration, batchSize int) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run ticks until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	log.Printf("📤 Order event relay started (every %s, batch %d)", r.interval, r.batchSize)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("📤 Order event relay stopped")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				log.Printf("❌ [RELAY] %v", err)
			}
		}
	}
}

// Flush publishes one batch and returns how many events were sent. It stops
// at the first publish failure so that events leave in order.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.store.FetchUnsentEvents(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := make([]int64, 0, len(events))
	var publishErr error
	for _, e := range events {
		if publishErr = r.publisher.Publish(ctx, e.OrderID, e.Payload); publishErr != nil {
			log.Printf("❌ [RELAY] publish failed | EventID=%s | OrderID=%s | Error=%v", e.EventID, e.OrderID, publishErr)
			break
		}
		sent = append(sent, e.ID)
	}

	if len(sent) == 0 {
		return 0, publishErr
	}
	if err := r.store.MarkEventsSent(ctx, sent, r.now().UTC()); err != nil {
		return 0, err
	}
	log.Printf("✅ [RELAY] Published %d order events", len(sent))
	return len(sent), publishErr
}
