package messaging

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/taker-hub/taker-fitness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher sits between the event bus and the progression handlers.
// The bus delivers synchronously; the dispatcher adds what the handlers
// need to be safe to run unattended: a worker pool, retries with
// exponential backoff, per-handler timeouts, middleware, and a parked
// queue for events that exhausted their retries.
type Dispatcher struct {
	eventBus       shared.EventBus
	handlers       map[shared.EventType][]handlerEntry
	middlewares    []Middleware
	retry          RetryConfig
	defaultTimeout time.Duration
	parked         *ParkedEvents
	logger         *slog.Logger
	metrics        *DispatchCounters
	workerPool     chan struct{}
	stopCh         chan struct{}
	stopOnce       sync.Once
	mu             sync.RWMutex
}

type handlerEntry struct {
	name       string
	handler    shared.EventHandler
	maxRetries int
	timeout    time.Duration
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// EventBus is the bus the dispatcher subscribes to.
	EventBus shared.EventBus

	// WorkerPoolSize bounds the number of handlers running at once.
	WorkerPoolSize int

	// RetryConfig configures retry behavior.
	RetryConfig RetryConfig

	// HandlerTimeout bounds a single handler attempt.
	HandlerTimeout time.Duration

	// ParkedQueueSize is the max number of failed events kept for
	// inspection. Zero disables the queue.
	ParkedQueueSize int

	// Logger for structured logging.
	Logger *slog.Logger
}

// RetryConfig contains retry configuration.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first failure.
	MaxRetries int

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DefaultDispatcherConfig returns sensible defaults.
func DefaultDispatcherConfig(eventBus shared.EventBus) DispatcherConfig {
	return DispatcherConfig{
		EventBus:        eventBus,
		WorkerPoolSize:  10,
		RetryConfig:     DefaultRetryConfig(),
		HandlerTimeout:  30 * time.Second,
		ParkedQueueSize: 1000,
	}
}

// NewDispatcher creates a new event dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		eventBus:       config.EventBus,
		handlers:       make(map[shared.EventType][]handlerEntry),
		retry:          config.RetryConfig,
		defaultTimeout: config.HandlerTimeout,
		logger:         config.Logger,
		metrics:        NewDispatchCounters(),
		workerPool:     make(chan struct{}, config.WorkerPoolSize),
		stopCh:         make(chan struct{}),
	}

	if config.ParkedQueueSize > 0 {
		d.parked = NewParkedEvents(config.ParkedQueueSize)
	}

	return d
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER REGISTRATION
// ══════════════════════════════════════════════════════════════════════════════

// Register adds a named handler for an event type with the dispatcher's
// default retry and timeout settings.
func (d *Dispatcher) Register(eventType shared.EventType, name string, handler shared.EventHandler) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	if name == "" {
		return errors.New("handler name cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, entry := range d.handlers[eventType] {
		if entry.name == name {
			return fmt.Errorf("handler %q already registered for %s", name, eventType)
		}
	}

	d.handlers[eventType] = append(d.handlers[eventType], handlerEntry{
		name:       name,
		handler:    handler,
		maxRetries: d.retry.MaxRetries,
		timeout:    d.defaultTimeout,
	})
	d.logger.Debug("registered handler", "event_type", eventType, "handler", name)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// Middleware wraps handler execution.
type Middleware func(shared.EventHandler) shared.EventHandler

// Use adds middleware to the dispatcher. Middleware added first runs
// outermost.
func (d *Dispatcher) Use(middleware Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, middleware)
}

// RecoveryMiddleware converts a handler panic into an error so one bad
// event cannot take the worker down.
func RecoveryMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered",
						"event_type", event.EventType(),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(event)
		}
	}
}

// LoggingMiddleware logs every handler execution with its duration.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next shared.EventHandler) shared.EventHandler {
		return func(event shared.Event) error {
			start := time.Now()
			err := next(event)
			duration := time.Since(start)

			if err != nil {
				logger.Error("handler failed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", duration,
					"error", err,
				)
			} else {
				logger.Debug("handler completed",
					"event_type", event.EventType(),
					"aggregate_id", event.AggregateID(),
					"duration", duration,
				)
			}

			return err
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHING
// ══════════════════════════════════════════════════════════════════════════════

// Start subscribes the dispatcher to every event on the bus.
func (d *Dispatcher) Start() error {
	return d.eventBus.SubscribeAll(d.Dispatch)
}

// Dispatch routes an event to its handlers. Handlers of the same event
// run concurrently through the worker pool; Dispatch returns once all
// of them finished, with their failures joined.
func (d *Dispatcher) Dispatch(event shared.Event) error {
	d.mu.RLock()
	entries := d.handlers[event.EventType()]
	middlewares := d.middlewares
	d.mu.RUnlock()

	if len(entries) == 0 {
		return nil
	}

	d.metrics.recordDispatch(event.EventType())

	errs := make([]error, len(entries))
	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry handlerEntry) {
			defer wg.Done()
			errs[i] = d.runHandler(event, entry, middlewares)
		}(i, entry)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// runHandler executes one handler with retries. After the last failed
// attempt the event is parked for inspection.
func (d *Dispatcher) runHandler(event shared.Event, entry handlerEntry, middlewares []Middleware) error {
	select {
	case d.workerPool <- struct{}{}:
		defer func() { <-d.workerPool }()
	case <-d.stopCh:
		return ErrDispatcherStopped
	}

	handler := entry.handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	var lastErr error
	for attempt := 0; attempt <= entry.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := d.retry.backoff(attempt)
			d.logger.Debug("retrying handler",
				"handler", entry.name,
				"attempt", attempt,
				"backoff", backoff,
			)

			select {
			case <-d.stopCh:
				return ErrDispatcherStopped
			case <-time.After(backoff):
			}
		}

		err := d.attempt(handler, event, entry.timeout)
		if err == nil {
			if attempt > 0 {
				d.metrics.recordRecovered(event.EventType())
			}
			return nil
		}

		lastErr = err
		d.logger.Warn("handler attempt failed",
			"handler", entry.name,
			"attempt", attempt,
			"error", err,
		)
	}

	if d.parked != nil {
		d.parked.Add(ParkedEvent{
			Event:       event,
			HandlerName: entry.name,
			Error:       lastErr,
			Attempts:    entry.maxRetries + 1,
			FailedAt:    time.Now(),
		})
	}
	d.metrics.recordFailure(event.EventType())

	return fmt.Errorf("handler %s gave up after %d attempts: %w", entry.name, entry.maxRetries+1, lastErr)
}

// attempt runs one handler call bounded by the timeout. The handler
// goroutine is not cancellable; a timed-out attempt is abandoned and
// counted as failed.
func (d *Dispatcher) attempt(handler shared.EventHandler, event shared.Event, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- handler(event)
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("handler timeout after %v", timeout)
	case <-d.stopCh:
		return ErrDispatcherStopped
	}
}

// backoff returns the wait before the given retry attempt.
func (c RetryConfig) backoff(attempt int) time.Duration {
	backoff := float64(c.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= c.BackoffMultiplier
	}
	if backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Stop releases handlers waiting on the pool or a backoff timer.
func (d *Dispatcher) Stop() error {
	d.stopOnce.Do(func() {
		close(d.stopCh)
	})
	d.logger.Info("dispatcher stopped")
	return nil
}

// Metrics returns the dispatch counters.
func (d *Dispatcher) Metrics() *DispatchCounters {
	return d.metrics
}

// ParkedEvents returns the parked event queue, nil when disabled.
func (d *Dispatcher) ParkedEvents() *ParkedEvents {
	return d.parked
}

// ErrDispatcherStopped is returned for work rejected during shutdown.
var ErrDispatcherStopped = errors.New("dispatcher is stopped")

// ══════════════════════════════════════════════════════════════════════════════
// PARKED EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// ParkedEvent is an event a handler gave up on.
type ParkedEvent struct {
	Event       shared.Event
	HandlerName string
	Error       error
	Attempts    int
	FailedAt    time.Time
}

// ParkedEvents is a bounded FIFO of failed events. When full, the
// oldest entry is dropped.
type ParkedEvents struct {
	mu      sync.RWMutex
	entries []ParkedEvent
	maxSize int
}

// NewParkedEvents creates a parked event queue with the given capacity.
func NewParkedEvents(maxSize int) *ParkedEvents {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &ParkedEvents{maxSize: maxSize}
}

// Add parks an event.
func (q *ParkedEvents) Add(entry ParkedEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, entry)
}

// Entries returns a copy of the parked events, oldest first.
func (q *ParkedEvents) Entries() []ParkedEvent {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]ParkedEvent, len(q.entries))
	copy(out, q.entries)
	return out
}

// Size returns the number of parked events.
func (q *ParkedEvents) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// ══════════════════════════════════════════════════════════════════════════════
// COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// DispatchCounters tracks per-event-type dispatch outcomes.
type DispatchCounters struct {
	mu sync.RWMutex

	dispatched map[shared.EventType]int64
	failed     map[shared.EventType]int64
	recovered  map[shared.EventType]int64
}

// NewDispatchCounters creates empty counters.
func NewDispatchCounters() *DispatchCounters {
	return &DispatchCounters{
		dispatched: make(map[shared.EventType]int64),
		failed:     make(map[shared.EventType]int64),
		recovered:  make(map[shared.EventType]int64),
	}
}

func (c *DispatchCounters) recordDispatch(eventType shared.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatched[eventType]++
}

func (c *DispatchCounters) recordFailure(eventType shared.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[eventType]++
}

func (c *DispatchCounters) recordRecovered(eventType shared.EventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recovered[eventType]++
}

// Dispatched returns how many events of the type were dispatched.
func (c *DispatchCounters) Dispatched(eventType shared.EventType) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dispatched[eventType]
}

// Failed returns how many events of the type exhausted their retries.
func (c *DispatchCounters) Failed(eventType shared.EventType) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failed[eventType]
}

// Recovered returns how many events of the type succeeded on a retry.
func (c *DispatchCounters) Recovered(eventType shared.EventType) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recovered[eventType]
}

// ══════════════════════════════════════════════════════════════════════════════
// BUILDER
// ══════════════════════════════════════════════════════════════════════════════

// DispatcherBuilder provides a fluent API for building a dispatcher.
type DispatcherBuilder struct {
	config DispatcherConfig
}

// NewDispatcherBuilder creates a builder with default configuration.
func NewDispatcherBuilder(eventBus shared.EventBus) *DispatcherBuilder {
	return &DispatcherBuilder{
		config: DefaultDispatcherConfig(eventBus),
	}
}

// WithWorkerPoolSize sets the worker pool size.
func (b *DispatcherBuilder) WithWorkerPoolSize(size int) *DispatcherBuilder {
	b.config.WorkerPoolSize = size
	return b
}

// WithRetryConfig sets the retry configuration.
func (b *DispatcherBuilder) WithRetryConfig(config RetryConfig) *DispatcherBuilder {
	b.config.RetryConfig = config
	return b
}

// WithHandlerTimeout sets the per-attempt handler timeout.
func (b *DispatcherBuilder) WithHandlerTimeout(timeout time.Duration) *DispatcherBuilder {
	b.config.HandlerTimeout = timeout
	return b
}

// WithLogger sets the logger.
func (b *DispatcherBuilder) WithLogger(logger *slog.Logger) *DispatcherBuilder {
	b.config.Logger = logger
	return b
}

// Build creates the dispatcher.
func (b *DispatcherBuilder) Build() *Dispatcher {
	return NewDispatcher(b.config)
}
