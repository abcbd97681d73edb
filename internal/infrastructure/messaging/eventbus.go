// Package messaging delivers domain events from the progression engine
// to its handlers. It ships two shared.EventBus implementations: an
// in-memory bus for a single worker process and a Redis Pub/Sub bus
// that fans events out across worker instances. The Dispatcher layers
// retries, timeouts, and middleware on top of either bus.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// Bus is a closable event bus. Both bus implementations satisfy it, so
// the worker can pick one at startup depending on whether Redis is up.
type Bus interface {
	shared.EventBus
	Close() error
}

// ErrEventBusClosed is returned for operations on a closed bus.
var ErrEventBusClosed = errors.New("event bus is closed")

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// InMemoryEventBus delivers events to handlers inside this process.
// In sync mode (used by the worker) Publish runs every handler before
// returning; async mode pushes handlers onto a bounded worker pool.
type InMemoryEventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	logger      *slog.Logger
	counters    *BusCounters
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// InMemoryEventBusConfig contains configuration for InMemoryEventBus.
type InMemoryEventBusConfig struct {
	// AsyncMode runs handlers on the worker pool instead of inline.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent handlers in async mode.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultInMemoryEventBusConfig returns sensible defaults.
func DefaultInMemoryEventBusConfig() InMemoryEventBusConfig {
	return InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// NewInMemoryEventBus creates a new in-memory event bus.
func NewInMemoryEventBus(config InMemoryEventBusConfig) *InMemoryEventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	return &InMemoryEventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		asyncMode:  config.AsyncMode,
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		logger:     config.Logger,
		counters:   NewBusCounters(),
		closeCh:    make(chan struct{}),
	}
}

// Subscribe registers a handler for a specific event type.
func (b *InMemoryEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// SubscribeAll registers a handler that receives every event.
func (b *InMemoryEventBus) SubscribeAll(handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrEventBusClosed
	}

	b.allHandlers = append(b.allHandlers, handler)
	return nil
}

// Publish delivers an event to its type handlers and to the global
// handlers.
func (b *InMemoryEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.counters.recordPublish(event.EventType())

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event", "event_type", event.EventType())
		return nil
	}

	for _, handler := range handlers {
		if b.asyncMode {
			b.runAsync(event, handler)
			continue
		}
		if err := b.run(event, handler); err != nil {
			b.logger.Error("handler error", "event_type", event.EventType(), "error", err)
		}
	}

	return nil
}

func (b *InMemoryEventBus) run(event shared.Event, handler shared.EventHandler) error {
	err := handler(event)
	if err != nil {
		b.counters.recordHandlerFailure(event.EventType())
	}
	return err
}

func (b *InMemoryEventBus) runAsync(event shared.Event, handler shared.EventHandler) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		select {
		case b.workerPool <- struct{}{}:
			defer func() { <-b.workerPool }()
		case <-b.closeCh:
			return
		}

		if err := b.run(event, handler); err != nil {
			b.logger.Error("async handler error", "event_type", event.EventType(), "error", err)
		}
	}()
}

// Close stops the bus and waits for in-flight async handlers.
func (b *InMemoryEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	close(b.closeCh)
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("event bus closed")
	return nil
}

// Counters returns the bus counters.
func (b *InMemoryEventBus) Counters() *BusCounters {
	return b.counters
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// RedisEventBus fans events out across worker instances over Redis
// Pub/Sub. Local handlers still run through an embedded in-memory bus;
// the Redis channel only carries the copy for other instances, and
// each envelope is tagged with the publisher's instance id so the
// sender skips its own messages.
type RedisEventBus struct {
	client     *redis.Client
	localBus   *InMemoryEventBus
	channel    string
	instanceID string
	logger     *slog.Logger
	pubsub     *redis.PubSub
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

// RedisEventBusConfig contains configuration for RedisEventBus.
type RedisEventBusConfig struct {
	// Client is the Redis connection to publish and subscribe on.
	Client *redis.Client

	// Channel is the Pub/Sub channel (default: "fitness-hub:events").
	Channel string

	// InstanceID identifies this worker. Defaults to a random UUID.
	InstanceID string

	// LocalBus configures the embedded in-memory bus.
	LocalBus InMemoryEventBusConfig

	// Logger for structured logging.
	Logger *slog.Logger
}

// NewRedisEventBus creates a Redis-based event bus and starts its
// subscription loop.
func NewRedisEventBus(config RedisEventBusConfig) (*RedisEventBus, error) {
	if config.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if config.Channel == "" {
		config.Channel = "fitness-hub:events"
	}
	if config.InstanceID == "" {
		config.InstanceID = uuid.NewString()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &RedisEventBus{
		client:     config.Client,
		localBus:   NewInMemoryEventBus(config.LocalBus),
		channel:    config.Channel,
		instanceID: config.InstanceID,
		logger:     config.Logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	bus.pubsub = bus.client.Subscribe(ctx, bus.channel)
	if _, err := bus.pubsub.Receive(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("subscribe to %s: %w", bus.channel, err)
	}

	bus.wg.Add(1)
	go bus.receiveLoop()

	return bus, nil
}

// Subscribe registers a handler for a specific event type.
func (b *RedisEventBus) Subscribe(eventType shared.EventType, handler shared.EventHandler) error {
	return b.localBus.Subscribe(eventType, handler)
}

// SubscribeAll registers a handler that receives every event.
func (b *RedisEventBus) SubscribeAll(handler shared.EventHandler) error {
	return b.localBus.SubscribeAll(handler)
}

// Publish delivers the event locally and broadcasts it on the Redis
// channel. A Redis outage degrades to local-only delivery.
func (b *RedisEventBus) Publish(event shared.Event) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	b.mu.RUnlock()

	data, err := json.Marshal(eventEnvelope{
		InstanceID:  b.instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := b.client.Publish(b.ctx, b.channel, data).Err(); err != nil {
		b.logger.Error("failed to publish to redis", "event_type", event.EventType(), "error", err)
	}

	return b.localBus.Publish(event)
}

func (b *RedisEventBus) receiveLoop() {
	defer b.wg.Done()

	messages := b.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			b.handlePayload(msg.Payload)
		}
	}
}

// handlePayload replays an envelope from another instance through the
// local handlers.
func (b *RedisEventBus) handlePayload(payload string) {
	var envelope eventEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		b.logger.Error("failed to unmarshal event envelope", "error", err)
		return
	}

	// Own messages were already delivered locally at publish time.
	if envelope.InstanceID == b.instanceID {
		return
	}

	if err := b.localBus.Publish(&remoteEvent{envelope: envelope}); err != nil {
		b.logger.Error("failed to process remote event",
			"event_type", envelope.EventType,
			"error", err,
		)
	}
}

// Close stops the subscription loop and closes the local bus.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	_ = b.pubsub.Close()
	b.wg.Wait()

	if err := b.localBus.Close(); err != nil {
		b.logger.Error("failed to close local bus", "error", err)
	}

	b.logger.Info("redis event bus closed")
	return nil
}

// Counters returns the counters of the embedded local bus.
func (b *RedisEventBus) Counters() *BusCounters {
	return b.localBus.Counters()
}

// eventEnvelope is the wire format on the Redis channel.
type eventEnvelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// remoteEvent adapts a received envelope back to shared.Event.
type remoteEvent struct {
	envelope eventEnvelope
}

func (e *remoteEvent) EventType() shared.EventType { return e.envelope.EventType }

func (e *remoteEvent) AggregateID() string { return e.envelope.AggregateID }

func (e *remoteEvent) OccurredAt() time.Time { return e.envelope.OccurredAt }

func (e *remoteEvent) Payload() map[string]interface{} { return e.envelope.Payload }

// ══════════════════════════════════════════════════════════════════════════════
// COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// BusCounters tracks per-event-type publish and failure counts.
type BusCounters struct {
	mu              sync.RWMutex
	published       map[shared.EventType]int64
	handlerFailures map[shared.EventType]int64
}

// NewBusCounters creates empty counters.
func NewBusCounters() *BusCounters {
	return &BusCounters{
		published:       make(map[shared.EventType]int64),
		handlerFailures: make(map[shared.EventType]int64),
	}
}

func (c *BusCounters) recordPublish(eventType shared.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published[eventType]++
}

func (c *BusCounters) recordHandlerFailure(eventType shared.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlerFailures[eventType]++
}

// Published returns how many events of the type were published.
func (c *BusCounters) Published(eventType shared.EventType) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.published[eventType]
}

// HandlerFailures returns how many handler runs failed for the type.
func (c *BusCounters) HandlerFailures(eventType shared.EventType) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handlerFailures[eventType]
}
