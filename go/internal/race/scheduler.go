package race

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Handle cancels a periodic task. Cancel is idempotent.
type Handle interface {
	Cancel()
}

// Scheduler runs fn every interval for a station until the returned handle is cancelled.
type Scheduler interface {
	Every(stationID int, interval time.Duration, fn func(now time.Time)) Handle
}

// ClockScheduler drives periodic tasks from a clockwork clock, one ticker
// goroutine per station.
type ClockScheduler struct {
	clock clockwork.Clock

	activeMu sync.Mutex
	active   map[int]*periodicTask
}

// NewClockScheduler creates a scheduler on the given clock
func NewClockScheduler(clock clockwork.Clock) *ClockScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockScheduler{
		clock:  clock,
		active: make(map[int]*periodicTask),
	}
}

type periodicTask struct {
	owner     *ClockScheduler
	stationID int
	ticker    clockwork.Ticker
	stop      chan struct{}
	once      sync.Once
}

// Every starts a ticker for the station, replacing any task already running for it.
func (s *ClockScheduler) Every(stationID int, interval time.Duration, fn func(now time.Time)) Handle {
	task := &periodicTask{
		owner:     s,
		stationID: stationID,
		ticker:    s.clock.NewTicker(interval),
		stop:      make(chan struct{}),
	}
	s.replaceTask(task)

	go func(t *periodicTask) {
		for {
			select {
			case now := <-t.ticker.Chan():
				select {
				case <-t.stop:
					return
				default:
				}
				fn(now)
			case <-t.stop:
				return
			}
		}
	}(task)

	log.Debug().
		Int("station_id", stationID).
		Dur("interval", interval).
		Msg("scheduled periodic tick")

	return task
}

// Active reports how many periodic tasks are live.
func (s *ClockScheduler) Active() int {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	return len(s.active)
}

// replaceTask atomically installs a task for a station, cancelling any previous one.
func (s *ClockScheduler) replaceTask(task *periodicTask) {
	s.activeMu.Lock()
	existing, ok := s.active[task.stationID]
	s.active[task.stationID] = task
	s.activeMu.Unlock()

	if ok {
		existing.shutdown()
		log.Warn().Int("station_id", task.stationID).Msg("replaced existing periodic tick")
	}
}

// removeTask drops the task only if it is still the one registered for its station
func (s *ClockScheduler) removeTask(task *periodicTask) {
	s.activeMu.Lock()
	defer s.activeMu.Unlock()
	if s.active[task.stationID] == task {
		delete(s.active, task.stationID)
	}
}

func (t *periodicTask) Cancel() {
	t.shutdown()
	t.owner.removeTask(t)
}

func (t *periodicTask) shutdown() {
	t.once.Do(func() {
		stopAndDrainTicker(t.ticker)
		close(t.stop)
		log.Debug().Int("station_id", t.stationID).Msg("cancelled periodic tick")
	})
}

// stopAndDrainTicker stops a ticker and discards a pending tick, if any.
func stopAndDrainTicker(ticker clockwork.Ticker) {
	ticker.Stop()
	select {
	case <-ticker.Chan():
	default:
	}
}
