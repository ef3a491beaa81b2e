package race

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockSchedulerRunsUntilCancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := NewClockScheduler(clock)

	var calls atomic.Int32
	h := sched.Every(1, time.Second, func(time.Time) { calls.Add(1) })
	assert.Equal(t, 1, sched.Active())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	h.Cancel()
	h.Cancel()
	assert.Equal(t, 0, sched.Active())

	clock.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClockSchedulerReplacesStationTask(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sched := NewClockScheduler(clock)

	var first, second atomic.Int32
	old := sched.Every(3, time.Second, func(time.Time) { first.Add(1) })
	sched.Every(3, time.Second, func(time.Time) { second.Add(1) })
	assert.Equal(t, 1, sched.Active())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, first.Load())

	// cancelling a replaced handle leaves the live task registered
	old.Cancel()
	assert.Equal(t, 1, sched.Active())
}
