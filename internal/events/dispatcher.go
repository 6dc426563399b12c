package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles a dispatched event.
type Handler func(context.Context, Event) error

// Dispatcher accepts events for best-effort side effects.
type Dispatcher interface {
	// Dispatch never blocks and never fails; an event that cannot be queued
	// is dropped and logged.
	Dispatch(event Event)
	Subscribe(eventType EventType, name string, handler Handler)
}

// Recorder receives outbox outcomes. *observability.Metrics implements it.
type Recorder interface {
	RecordSideEffect(handler, outcome string)
	RecordDroppedEvent()
}

// Options sizes the outbox.
type Options struct {
	Workers        int
	QueueSize      int
	HandlerTimeout time.Duration
}

type subscription struct {
	name    string
	handler Handler
}

// Outbox is a bounded in-process queue drained by a worker pool.
type Outbox struct {
	mu        sync.RWMutex
	listeners map[EventType][]subscription
	closed    bool

	queue   chan Event
	opts    Options
	logger  *zap.Logger
	metrics Recorder

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewOutbox creates an outbox. Call Start to begin draining it.
func NewOutbox(opts Options, logger *zap.Logger, metrics Recorder) *Outbox {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Outbox{
		listeners: make(map[EventType][]subscription),
		queue:     make(chan Event, opts.QueueSize),
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Subscribe registers a named handler for the given event type.
func (o *Outbox) Subscribe(eventType EventType, name string, handler Handler) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners[eventType] = append(o.listeners[eventType], subscription{name: name, handler: handler})
}

// Dispatch queues event, stamping its id and timestamp when missing.
func (o *Outbox) Dispatch(event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		o.drop(event, "outbox closed")
		return
	}
	select {
	case o.queue <- event:
	default:
		o.drop(event, "outbox queue full")
	}
}

func (o *Outbox) drop(event Event, reason string) {
	if o.metrics != nil {
		o.metrics.RecordDroppedEvent()
	}
	o.logger.Warn("side-effect event dropped",
		zap.String("reason", reason),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("item_id", event.ItemID))
}

// Start launches the worker pool. Calling it more than once has no effect.
func (o *Outbox) Start() {
	o.startOnce.Do(func() {
		for i := 0; i < o.opts.Workers; i++ {
			o.wg.Add(1)
			go o.work()
		}
		o.logger.Info("outbox started", zap.Int("workers", o.opts.Workers), zap.Int("queue_size", o.opts.QueueSize))
	})
}

// Shutdown stops accepting events and waits for queued ones to be handled,
// or for ctx to end.
func (o *Outbox) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	if !o.closed {
		o.closed = true
		close(o.queue)
	}
	o.mu.Unlock()

	// Drain on the caller when the pool never started.
	o.startOnce.Do(func() {
		for event := range o.queue {
			o.handle(event)
		}
	})

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("outbox drain: %w", ctx.Err())
	}
}

func (o *Outbox) work() {
	defer o.wg.Done()
	for event := range o.queue {
		o.handle(event)
	}
}

func (o *Outbox) handle(event Event) {
	o.mu.RLock()
	subs := append([]subscription(nil), o.listeners[event.Type]...)
	o.mu.RUnlock()

	for _, sub := range subs {
		o.invoke(sub, event)
	}
}

func (o *Outbox) invoke(sub subscription, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.HandlerTimeout)
	defer cancel()

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("item_id", event.ItemID),
		zap.String("handler", sub.name),
	}

	outcome := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			outcome = "panic"
			o.logger.Error("side-effect handler panicked", append(fields, zap.Any("panic", rec), zap.Stack("stack"))...)
		}
		if o.metrics != nil {
			o.metrics.RecordSideEffect(sub.name, outcome)
		}
	}()

	if err := sub.handler(ctx, event); err != nil {
		outcome = "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		o.logger.Warn("side-effect handler failed", append(fields, zap.Error(err))...)
	}
}
