package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ociferry/ferry-booking/internal/core/domain"
	"github.com/ociferry/ferry-booking/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// SessionEventHandler applies a session event to the local session slots.
type SessionEventHandler interface {
	HandleEvent(ctx context.Context, ev domain.SessionEvent) error
}

// Dispatcher routes session events to a fixed set of workers using consistent
// hashing on the session id, guaranteeing per-session event ordering.
type Dispatcher struct {
	workers []chan domain.SessionEvent
	handler SessionEventHandler
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler SessionEventHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.SessionEvent, numWorkers),
		handler: handler,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.SessionEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its session.
// The call blocks once that worker has channelBuffer events pending.
func (d *Dispatcher) Enqueue(ev domain.SessionEvent) {
	idx := d.shardIndex(ev.SessionID)
	d.workers[idx] <- ev
	metrics.SessionQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a session id deterministically to a worker index.
func (d *Dispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.SessionEvent) {
	depth := metrics.SessionQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.handler.HandleEvent(ctx, ev); err != nil {
				d.log.Error().Err(err).
					Str("session_id", ev.SessionID).
					Str("kind", string(ev.Kind)).
					Int("worker_id", id).
					Msg("session event processing failed")
			}
		}
	}
}
