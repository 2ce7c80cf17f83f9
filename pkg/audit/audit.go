// Package audit records order lifecycle events to the order_events
// collection without blocking the request path. Events are queued on a
// buffered channel and flushed in batches by a background drain loop.
package audit

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/pustak/pkg/logger"
)

// Event is one order lifecycle entry in the trail.
type Event struct {
	OrderID string    `bson:"orderId"`
	UserID  string    `bson:"userId,omitempty"`
	Action  string    `bson:"action"`
	Detail  string    `bson:"detail,omitempty"`
	At      time.Time `bson:"at"`
}

const (
	queueSize     = 1024
	batchSize     = 50
	flushInterval = 2 * time.Second
)

// Trail is an asynchronous, batching event writer.
type Trail struct {
	coll   *mongo.Collection
	queue  chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// NewTrail starts a trail writing to coll. A nil coll yields a no-op
// trail, which keeps tests and degraded boots simple.
func NewTrail(coll *mongo.Collection) *Trail {
	t := &Trail{
		coll:  coll,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}

	if coll != nil {
		t.wg.Add(1)
		go t.drainLoop()
	}

	return t
}

// Record queues an event. Never blocks: when the queue is full the event
// is dropped with a warning, the order itself is already persisted.
func (t *Trail) Record(orderID, userID, action, detail string) {
	if t == nil || t.coll == nil {
		return
	}

	ev := Event{OrderID: orderID, UserID: userID, Action: action, Detail: detail, At: time.Now().UTC()}

	select {
	case t.queue <- ev:
	default:
		logger.Warn("audit queue full, dropping event", "order_id", orderID, "action", action)
	}
}

// Close flushes pending events and stops the drain loop.
func (t *Trail) Close() {
	if t == nil || t.coll == nil {
		return
	}
	t.closed.Do(func() {
		close(t.done)
		t.wg.Wait()
	})
}

func (t *Trail) drainLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		t.insert(batch)
		batch = batch[:0]
	}

	for {
		select {
		case ev := <-t.queue:
			batch = append(batch, ev)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-t.done:
			// drain whatever is still queued before exiting
			for {
				select {
				case ev := <-t.queue:
					batch = append(batch, ev)
					if len(batch) >= batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (t *Trail) insert(batch []Event) {
	docs := make([]interface{}, len(batch))
	for i, ev := range batch {
		docs[i] = ev
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := t.coll.InsertMany(ctx, docs); err != nil {
		logger.Error("audit batch insert failed", "count", len(docs), "error", err)
	}
}
