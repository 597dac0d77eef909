package notification

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	applog "github.com/freebies-japan/api/internal/platform/logging"
	"github.com/freebies-japan/api/internal/platform/metrics"
)

// Dispatcher defaults.
const (
	DefaultWorkers      = 4
	DefaultQueueSize    = 256
	DefaultEventTimeout = time.Minute
)

type job struct {
	ctx context.Context
	ev  Event
}

// Dispatcher hands events to a bounded pool of workers so that callers
// return as soon as their write is committed. Events that do not fit in the
// queue are dropped and logged.
type Dispatcher struct {
	next    Notifier
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewDispatcher starts workers delivering to next. Values below 1 fall back
// to the defaults.
func NewDispatcher(next Notifier, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = DefaultWorkers
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	d := &Dispatcher{
		next:    next,
		timeout: DefaultEventTimeout,
		queue:   make(chan job, queueSize),
	}
	for range workers {
		d.wg.Go(d.work)
	}
	return d
}

// Notify enqueues ev without blocking. The request's logger and values are
// kept; its cancellation is not.
func (d *Dispatcher) Notify(ctx context.Context, ev Event) {
	ev.UserIDs = slices.Clone(ev.UserIDs)
	j := job{ctx: context.WithoutCancel(ctx), ev: ev}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ctx, ev, "dispatcher closed")
		return
	}
	select {
	case d.queue <- j:
	default:
		d.drop(ctx, ev, "notification queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, ev Event, reason string) {
	metrics.ObserveDroppedNotification(string(ev.Kind))
	applog.LogWarn(ctx, reason,
		zap.String("notification.kind", string(ev.Kind)),
		zap.String("item_id", ev.ItemID))
}

func (d *Dispatcher) work() {
	for j := range d.queue {
		ctx, cancel := context.WithTimeout(j.ctx, d.timeout)
		d.next.Notify(ctx, j.ev)
		cancel()
	}
}

// Close stops accepting events and waits until queued ones are delivered.
// It returns ctx.Err() if ctx ends first; workers keep draining in the
// background.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Notifier = (*Dispatcher)(nil)
