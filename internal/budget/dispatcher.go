package budget

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Sink delivers alert events to wherever the transport renders them.
type Sink interface {
	Deliver(ctx context.Context, event AlertEvent) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event AlertEvent) error

func (f SinkFunc) Deliver(ctx context.Context, event AlertEvent) error {
	return f(ctx, event)
}

// Dispatcher delivers alert events asynchronously over a buffered channel
// so that alerting never blocks command handling. Delivery failures are
// logged and dropped: the transaction that raised the alert is already
// persisted, and alert delivery is not transactional with it.
type Dispatcher struct {
	sink      Sink
	events    chan AlertEvent
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	log       zerolog.Logger
}

// NewDispatcher creates a dispatcher with the given channel buffer.
func NewDispatcher(sink Sink, buffer int, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sink:      sink,
		events:    make(chan AlertEvent, buffer),
		closeChan: make(chan struct{}),
		log:       log,
	}
}

// Publish enqueues an event for delivery. It fails only when the
// dispatcher is closed or the context is cancelled while the buffer is
// full.
func (d *Dispatcher) Publish(ctx context.Context, event AlertEvent) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return fmt.Errorf("alert dispatcher is closed")
	}

	select {
	case d.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.closeChan:
		return fmt.Errorf("alert dispatcher is closed")
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.worker(ctx)
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.closeChan:
			return
		case event := <-d.events:
			if err := d.sink.Deliver(ctx, event); err != nil {
				d.log.Error().
					Err(err).
					Str("alert_id", event.ID).
					Str("category", event.Category).
					Msg("alert delivery failed, dropping event")
			}
		}
	}
}

// Stop closes the dispatcher and waits for the worker to drain, up to
// the context deadline.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.closeChan)
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
