package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	published []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failFirst {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakePublisher) snapshot() ([]events.Event, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.published...), f.attempts
}

func testEvent(t *testing.T, eventType events.EventType, stationID int) events.Event {
	t.Helper()
	ev, err := events.New(eventType, stationID, time.Now(), events.RaceStoppedPayload{Duration: "00:10"})
	require.NoError(t, err)
	return ev
}

func TestWorkerRetriesUntilPublished(t *testing.T) {
	pub := &fakePublisher{failFirst: 2}
	w := NewWorker(pub, Config{QueueSize: 8, MaxRetries: 3, RetryDelay: time.Millisecond})
	require.NoError(t, w.Start(context.Background()))

	ev := testEvent(t, events.EventTypeRaceStopped, 4)
	w.Emit(ev)
	require.NoError(t, w.Stop())

	published, attempts := pub.snapshot()
	require.Len(t, published, 1)
	assert.Equal(t, ev.ID, published[0].ID)
	assert.Equal(t, 3, attempts)

	stats := w.Stats()
	assert.Equal(t, uint64(1), stats.Published)
	assert.Zero(t, stats.Failed)
	assert.False(t, stats.LastPublished.IsZero())
}

func TestWorkerGivesUpAfterMaxRetries(t *testing.T) {
	pub := &fakePublisher{failFirst: 100}
	w := NewWorker(pub, Config{QueueSize: 8, MaxRetries: 2, RetryDelay: time.Millisecond})

	w.process(context.Background(), testEvent(t, events.EventTypeRaceStarted, 1))
	_, attempts := pub.snapshot()
	assert.Equal(t, 3, attempts)
	assert.Equal(t, uint64(1), w.Stats().Failed)
}

func TestWorkerSkipsTicks(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker(pub, Config{QueueSize: 8, SkipTicks: true})
	require.NoError(t, w.Start(context.Background()))

	w.Emit(testEvent(t, events.EventTypeRaceTick, 1))
	w.Emit(testEvent(t, events.EventTypeRaceStopped, 1))
	require.NoError(t, w.Stop())

	published, _ := pub.snapshot()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTypeRaceStopped, published[0].Type)
}

func TestWorkerDropsWhenQueueFull(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker(pub, Config{QueueSize: 1})

	w.Emit(testEvent(t, events.EventTypeRaceStarted, 1))
	w.Emit(testEvent(t, events.EventTypeRaceStopped, 1))
	assert.Len(t, w.queue, 1)
	assert.Equal(t, uint64(1), w.Stats().Dropped)
}

func TestWorkerStopAfterCancelPublishesQueued(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker(pub, Config{QueueSize: 8, MaxRetries: 1, RetryDelay: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	for i := 0; i < 3; i++ {
		w.Emit(testEvent(t, events.EventTypeRaceStopped, i+1))
	}
	require.NoError(t, w.Stop())

	published, _ := pub.snapshot()
	assert.Len(t, published, 3)
	assert.Empty(t, w.queue)
	stats := w.Stats()
	assert.Equal(t, uint64(3), stats.Published)
	assert.Zero(t, stats.Dropped)
}

func TestWorkerCountsUndrainedEventsAsDropped(t *testing.T) {
	pub := &fakePublisher{failFirst: 1000}
	w := NewWorker(pub, Config{
		QueueSize:    8,
		MaxRetries:   100,
		RetryDelay:   50 * time.Millisecond,
		DrainTimeout: 20 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	for i := 0; i < 3; i++ {
		w.Emit(testEvent(t, events.EventTypeRaceTick, i+1))
	}
	require.NoError(t, w.Stop())

	assert.Empty(t, w.queue)
	stats := w.Stats()
	assert.Zero(t, stats.Published)
	assert.Equal(t, uint64(3), stats.Failed+stats.Dropped)
}

func TestWorkerStartStopGuards(t *testing.T) {
	w := NewWorker(&fakePublisher{}, DefaultConfig())
	require.Error(t, w.Stop())
	require.NoError(t, w.Start(context.Background()))
	require.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
}

func TestSubject(t *testing.T) {
	ev := testEvent(t, events.EventTypeRaceStopped, 7)
	assert.Equal(t, "stations.events.7.RaceStopped", Subject("stations.events", ev))
}
