package event

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/farmmarket/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/farmmarket/backend/event"

type envelope struct {
	ctx   context.Context
	event shared.DomainEvent
}

// InMemoryEventBus dispatches domain events to registered handlers.
// Handler failures are logged and never reach the publisher. In async
// mode events are queued to a fixed pool of workers; Stop drains the queue.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	tracer   trace.Tracer

	workers int
	queue   chan envelope
	running atomic.Bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// Option configures the bus
type Option func(*InMemoryEventBus)

// WithAsync dispatches events on workers goroutines reading a queue of queueSize
func WithAsync(workers, queueSize int) Option {
	return func(b *InMemoryEventBus) {
		if workers > 0 {
			b.workers = workers
			b.queue = make(chan envelope, max(queueSize, 1))
		}
	}
}

// NewInMemoryEventBus creates a bus; without options it dispatches synchronously
func NewInMemoryEventBus(logger *zap.Logger, opts ...Option) *InMemoryEventBus {
	b := &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish delivers events to their handlers
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if b.enqueue(ctx, ev) {
			continue
		}
		b.dispatch(ctx, ev)
	}
	return nil
}

func (b *InMemoryEventBus) enqueue(ctx context.Context, ev shared.DomainEvent) bool {
	if b.queue == nil || !b.running.Load() {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running.Load() {
		return false
	}
	select {
	case b.queue <- envelope{ctx: context.WithoutCancel(ctx), event: ev}:
		return true
	default:
		b.logger.Warn("event queue full, dispatching inline",
			zap.String("event_type", ev.EventType()))
		return false
	}
}

// Subscribe registers a handler; with no types given, handler.EventTypes() is used
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.String("handler", fmt.Sprintf("%T", handler)),
		zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start launches the async workers if configured
func (b *InMemoryEventBus) Start(_ context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}
	b.logger.Info("event bus started", zap.Int("workers", b.workers))
	return nil
}

// Stop stops accepting queued events and waits for in-flight ones
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	if !b.running.CompareAndSwap(true, false) {
		return nil
	}
	if b.queue != nil {
		b.mu.Lock()
		close(b.queue)
		b.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		b.logger.Info("event bus stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event bus stop: %w", ctx.Err())
	}
}

func (b *InMemoryEventBus) worker() {
	defer b.wg.Done()
	for env := range b.queue {
		b.dispatch(env.ctx, env.event)
	}
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, ev shared.DomainEvent) {
	for _, h := range b.registry.GetHandlers(ev.EventType()) {
		if err := b.handle(ctx, h, ev); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", ev.EventType()),
				zap.String("event_id", ev.EventID().String()),
				zap.String("handler", fmt.Sprintf("%T", h)),
				zap.Error(err))
		}
	}
}

func (b *InMemoryEventBus) handle(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	ctx, span := b.tracer.Start(ctx, "event.handle "+ev.EventType(),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("event.type", ev.EventType()),
			attribute.String("event.aggregate_type", ev.AggregateType()),
			attribute.String("event.aggregate_id", ev.AggregateID().String()),
		))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
