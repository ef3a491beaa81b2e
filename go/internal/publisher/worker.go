package publisher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/rs/zerolog/log"
)

// EventPublisher delivers one event to an external broker
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Config struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
	// DrainTimeout bounds publishing of queued events once the worker stops.
	DrainTimeout time.Duration
	// SkipTicks keeps per-second RaceTick events off the broker.
	SkipTicks bool
}

func DefaultConfig() Config {
	return Config{
		QueueSize:    1024,
		MaxRetries:   3,
		RetryDelay:   500 * time.Millisecond,
		DrainTimeout: 5 * time.Second,
	}
}

// Worker is an events.Sink that publishes asynchronously with retries.
type Worker struct {
	publisher EventPublisher
	config    Config
	queue     chan events.Event

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
	lastSent  atomic.Int64 // unix nanos

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(publisher EventPublisher, cfg Config) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultConfig().DrainTimeout
	}
	return &Worker{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan events.Event, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}
}

// Emit enqueues an event without blocking; a full queue drops it.
func (w *Worker) Emit(event events.Event) {
	if w.config.SkipTicks && event.Type == events.EventTypeRaceTick {
		return
	}
	select {
	case w.queue <- event:
	default:
		w.dropped.Add(1)
		log.Warn().
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("publish queue full, dropping event")
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("publish worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	log.Info().
		Int("queue_size", w.config.QueueSize).
		Int("max_retries", w.config.MaxRetries).
		Msg("publish worker started")
	return nil
}

// Stop publishes whatever is still queued, then returns. Events the drain
// cannot reach are counted as dropped.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("publish worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.flush()
	w.discardQueued()

	stats := w.Stats()
	log.Info().
		Uint64("published", stats.Published).
		Uint64("failed", stats.Failed).
		Uint64("dropped", stats.Dropped).
		Msg("publish worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			w.flush()
			return
		case <-w.stopChan:
			w.flush()
			return
		case event := <-w.queue:
			w.process(ctx, event)
		}
	}
}

// flush drains on a context detached from the run context, which is usually
// already cancelled by the time the queue is flushed.
func (w *Worker) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.DrainTimeout)
	defer cancel()
	w.drain(ctx)
}

func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		select {
		case event := <-w.queue:
			w.process(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) discardQueued() {
	for {
		select {
		case event := <-w.queue:
			w.dropped.Add(1)
			log.Warn().
				Str("event_id", event.ID).
				Str("event_type", string(event.Type)).
				Msg("publish worker stopped, dropping event")
		default:
			return
		}
	}
}

func (w *Worker) process(ctx context.Context, event events.Event) {
	err := w.publishWithRetry(ctx, event)
	if err == nil {
		w.published.Add(1)
		w.lastSent.Store(time.Now().UnixNano())
		return
	}
	w.failed.Add(1)
	log.Error().
		Err(err).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Msg("failed to publish event")
}

func (w *Worker) publishWithRetry(ctx context.Context, event events.Event) error {
	var lastErr error

	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := w.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", event.ID).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Stats counts what the worker has done since it was created
type Stats struct {
	Published     uint64    `json:"published"`
	Failed        uint64    `json:"failed"`
	Dropped       uint64    `json:"dropped"`
	LastPublished time.Time `json:"last_published,omitempty"`
}

func (w *Worker) Stats() Stats {
	s := Stats{
		Published: w.published.Load(),
		Failed:    w.failed.Load(),
		Dropped:   w.dropped.Load(),
	}
	if ns := w.lastSent.Load(); ns != 0 {
		s.LastPublished = time.Unix(0, ns)
	}
	return s
}
