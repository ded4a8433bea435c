package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tenderlens/tenderlens/internal/redact"
)

// Sink consumes audit events (stdout, file, webhook).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// EmitterConfig controls worker and queue sizing.
type EmitterConfig struct {
	QueueSize       int
	Workers         int
	ShutdownTimeout time.Duration
}

const (
	defaultQueueSize       = 1000
	defaultWorkers         = 1
	defaultShutdownTimeout = 2 * time.Second
)

func (c EmitterConfig) withDefaults() EmitterConfig {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// sinkStats tracks delivery outcomes for one sink.
type sinkStats struct {
	success atomic.Uint64
	failure atomic.Uint64
}

// Metrics is a point-in-time copy of the emitter counters.
type Metrics struct {
	enqueued uint64
	dropped  uint64
	success  map[string]uint64
	failure  map[string]uint64
}

func (m Metrics) Enqueued() uint64 { return m.enqueued }
func (m Metrics) Dropped() uint64  { return m.dropped }

func (m Metrics) SinkSuccess(name string) uint64 { return m.success[name] }
func (m Metrics) SinkFailure(name string) uint64 { return m.failure[name] }

// Emitter decouples audit delivery from the request path: events are
// enqueued without blocking and delivered to every sink by background
// workers. When the queue is full the event is dropped and counted, never
// waited on.
type Emitter struct {
	cfg   EmitterConfig
	queue chan *Event
	sinks []Sink
	stats map[string]*sinkStats

	enqueued atomic.Uint64
	dropped  atomic.Uint64

	// mu orders enqueues against closing the queue channel.
	mu      sync.RWMutex
	closing bool
	wg      sync.WaitGroup
}

// NewEmitter starts the delivery workers for the given sinks.
func NewEmitter(cfg EmitterConfig, sinks []Sink) *Emitter {
	cfg = cfg.withDefaults()

	e := &Emitter{
		cfg:   cfg,
		queue: make(chan *Event, cfg.QueueSize),
		sinks: sinks,
		stats: make(map[string]*sinkStats, len(sinks)),
	}
	for _, s := range sinks {
		e.stats[s.Name()] = &sinkStats{}
	}

	e.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go e.run()
	}
	return e
}

// Emit enqueues the event if there is room. A nil emitter is a no-op so
// callers need no guard when auditing is not configured.
func (e *Emitter) Emit(_ context.Context, ev *Event) {
	if e == nil || ev == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closing {
		e.dropped.Add(1)
		return
	}

	select {
	case e.queue <- ev:
		e.enqueued.Add(1)
	default:
		e.dropped.Add(1)
	}
}

// Close stops accepting events, lets the workers drain the queue up to the
// shutdown timeout, then closes every sink.
func (e *Emitter) Close(ctx context.Context) {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closing {
		e.mu.Unlock()
		return
	}
	e.closing = true
	close(e.queue)
	e.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(drained)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-drained:
	case <-ctx.Done():
	}

	for _, s := range e.sinks {
		if err := s.Close(ctx); err != nil {
			redact.Logf("audit: sink %s close error: %v", s.Name(), err)
		}
	}
}

// MetricsSnapshot copies the current counters.
func (e *Emitter) MetricsSnapshot() Metrics {
	if e == nil {
		return Metrics{}
	}
	m := Metrics{
		enqueued: e.enqueued.Load(),
		dropped:  e.dropped.Load(),
		success:  make(map[string]uint64, len(e.stats)),
		failure:  make(map[string]uint64, len(e.stats)),
	}
	for name, st := range e.stats {
		m.success[name] = st.success.Load()
		m.failure[name] = st.failure.Load()
	}
	return m
}

func (e *Emitter) run() {
	defer e.wg.Done()
	for ev := range e.queue {
		for _, s := range e.sinks {
			st := e.stats[s.Name()]
			if err := s.Deliver(context.Background(), ev); err != nil {
				redact.Logf("audit: sink %s failed: %v", s.Name(), err)
				st.failure.Add(1)
				continue
			}
			st.success.Add(1)
		}
	}
}
