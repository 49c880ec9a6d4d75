package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event represents an incoming command from the host bridge.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Observer is told about every handled event, after the handler returns.
type Observer func(command string, duration time.Duration, err error)

// Option configures handler registration.
type Option func(*config)

type config struct {
	bufferSize int
	blocking   bool
	logged     bool
	lane       string
}

// Buffered makes the handler async with a queue of the given size.
func Buffered(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// Blocking makes a buffered handler block when the queue is full instead of dropping.
func Blocking() Option {
	return func(c *config) {
		c.blocking = true
	}
}

// Lane puts a buffered handler on a named queue shared with other commands.
// Events on one lane are handled in dispatch order by a single goroutine.
// The first registration on a lane decides its size.
func Lane(name string) Option {
	return func(c *config) {
		c.lane = name
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type queued struct {
	h HandlerFunc
	e Event
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	handlers  map[string]HandlerFunc
	logger    Logger
	observers []Observer

	// OTEL metrics
	queueSize metric.Int64ObservableGauge
	processed metric.Int64Counter
	failed    metric.Int64Counter
	dropped   metric.Int64Counter

	// Track lanes for gauge callback and shutdown
	mu     sync.RWMutex
	lanes  map[string]chan queued
	wg     sync.WaitGroup
	closed bool
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		lanes:    make(map[string]chan queued),
		logger:   logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Current number of events in queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for lane, buf := range d.lanes {
				o.ObserveInt64(d.queueSize, int64(len(buf)),
					metric.WithAttributes(attribute.String("lane", lane)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.failed, err = m.Int64Counter(
		"dispatcher.events.failed",
		metric.WithDescription("Total events whose handler returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating failed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Observe registers an observer. Observers must be added before dispatching starts.
func (d *Dispatcher) Observe(o Observer) {
	d.observers = append(d.observers, o)
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := d.withMetrics(command, h)

	if cfg.logged {
		handler = d.withLogging(command, handler)
	}

	if cfg.bufferSize > 0 || cfg.lane != "" {
		lane := cfg.lane
		if lane == "" {
			lane = command
		}
		handler = d.withBuffer(command, lane, max(cfg.bufferSize, 1), cfg.blocking, handler)
	}

	d.handlers[command] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	h, ok := d.handlers[e.Command]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Close stops accepting queued events and waits for every lane to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, buf := range d.lanes {
		close(buf)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) lane(name string, size int) chan queued {
	d.mu.Lock()
	defer d.mu.Unlock()

	if buf, ok := d.lanes[name]; ok {
		return buf
	}

	buf := make(chan queued, size)
	d.lanes[name] = buf
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for q := range buf {
			q.h(q.e)
		}
	}()
	return buf
}

func (d *Dispatcher) withBuffer(command, lane string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	buffer := d.lane(lane, size)
	cmdAttr := attribute.String("command", command)

	send := func(e Event) (sent bool, err error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return false, fmt.Errorf("dispatcher closed: %s", command)
		}
		if blocking {
			buffer <- queued{h: h, e: e}
			return true, nil
		}
		select {
		case buffer <- queued{h: h, e: e}:
			return true, nil
		default:
			return false, nil
		}
	}

	return func(e Event) (any, error) {
		sent, err := send(e)
		if err != nil {
			return nil, err
		}
		if !sent {
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("queue full: %s", command)
		}
		return "queued", nil
	}
}

func (d *Dispatcher) withMetrics(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)
		elapsed := time.Since(start)

		d.processed.Add(context.Background(), 1, cmdAttr)
		if err != nil {
			d.failed.Add(context.Background(), 1, cmdAttr)
		}
		for _, o := range d.observers {
			o(command, elapsed, err)
		}
		return result, err
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
