package race

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racecycles/go/internal/events"
	"github.com/mcdev12/racecycles/go/internal/models"
	"github.com/rs/zerolog/log"
)

// lowBatteryThreshold is the percentage below which a station is flagged.
const lowBatteryThreshold = 80

type station struct {
	id             int
	assignedUserID string
	batteryPercent int
	race           *RaceState
	handle         Handle
}

// Manager owns the fixed set of stations and their race lifecycle. Every
// operation holds mu for its full duration, including scheduled ticks.
type Manager struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	scheduler Scheduler
	rates     RateProvider
	interval  time.Duration
	users     UserResolver
	sink      events.Sink
	stations  [NumStations]*station
}

// NewManager creates a manager with all stations idle and unassigned.
func NewManager(cfg Config, users UserResolver, sink events.Sink) *Manager {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewClockScheduler(cfg.Clock)
	}
	if cfg.Rates == nil {
		cfg.Rates = NewUniformRate(DefaultMinRate, DefaultMaxRate, nil)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.BatteryLevel == nil {
		cfg.BatteryLevel = randomBatteryLevel
	}

	m := &Manager{
		clock:     cfg.Clock,
		scheduler: cfg.Scheduler,
		rates:     cfg.Rates,
		interval:  cfg.TickInterval,
		users:     users,
		sink:      sink,
	}
	for i := range m.stations {
		m.stations[i] = &station{
			id:             i + 1,
			batteryPercent: cfg.BatteryLevel(i + 1),
		}
	}
	return m
}

func (m *Manager) lookup(stationID int) (*station, error) {
	if stationID < 1 || stationID > NumStations {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStation, stationID)
	}
	return m.stations[stationID-1], nil
}

// AssignUser sets or, with an empty userID, clears the station's assignment.
// A running race keeps running.
func (m *Manager) AssignUser(stationID int, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.lookup(stationID)
	if err != nil {
		return err
	}

	st.assignedUserID = userID

	var idPtr *string
	if userID != "" {
		idPtr = &userID
	}
	m.emit(events.EventTypeAssignmentChanged, st.id, m.clock.Now(), events.AssignmentChangedPayload{
		UserID:      idPtr,
		DisplayName: m.displayName(st),
	})

	log.Info().
		Int("station_id", stationID).
		Str("user_id", userID).
		Msg("station assignment changed")
	return nil
}

// StartRace begins a race for the assigned user and schedules periodic ticks.
func (m *Manager) StartRace(stationID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.lookup(stationID)
	if err != nil {
		return err
	}
	if st.assignedUserID == "" {
		return fmt.Errorf("station %d: %w", stationID, ErrNoUserAssigned)
	}
	if st.race != nil {
		return fmt.Errorf("station %d: %w", stationID, ErrAlreadyRunning)
	}
	user, ok := m.resolve(st.assignedUserID)
	if !ok {
		return fmt.Errorf("station %d: user %q not found: %w", stationID, st.assignedUserID, ErrNoUserAssigned)
	}

	now := m.clock.Now()
	rs := &RaceState{StartedAt: now, LastTick: now}
	st.race = rs
	st.handle = m.scheduler.Every(stationID, m.interval, func(at time.Time) {
		m.scheduledTick(stationID, rs, at)
	})

	m.emit(events.EventTypeRaceStarted, st.id, now, events.RaceStartedPayload{
		UserID:    user.ID,
		UserName:  user.Name,
		StartedAt: now,
		Message:   fmt.Sprintf("Race started for %s's cycle!", user.Name),
	})
	m.tickLocked(st, now)

	log.Info().
		Int("station_id", stationID).
		Str("user_id", user.ID).
		Msg("race started")
	return nil
}

// StopRace cancels the station's ticking and discards its race.
func (m *Manager) StopRace(stationID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.lookup(stationID)
	if err != nil {
		return err
	}
	if st.race == nil {
		return fmt.Errorf("station %d: %w", stationID, ErrNotRunning)
	}

	rs := st.race
	m.discardLocked(st)

	now := m.clock.Now()
	duration := FormatDuration(clampElapsed(now.Sub(rs.StartedAt)))
	m.emit(events.EventTypeRaceStopped, st.id, now, events.RaceStoppedPayload{
		Duration:  duration,
		EnergyWh:  rs.EnergyWh,
		StoppedAt: now,
		Message:   "Race stopped!",
	})

	log.Info().
		Int("station_id", stationID).
		Str("duration", duration).
		Float64("energy_wh", rs.EnergyWh).
		Msg("race stopped")
	return nil
}

// Tick advances the station's race to now and reports the new display values.
func (m *Manager) Tick(stationID int, now time.Time) (TickResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.lookup(stationID)
	if err != nil {
		return TickResult{}, err
	}
	if st.race == nil {
		return TickResult{}, fmt.Errorf("station %d: %w", stationID, ErrNotRunning)
	}
	return m.tickLocked(st, now), nil
}

// scheduledTick is the periodic callback. It only applies while rs is still
// the station's current race.
func (m *Manager) scheduledTick(stationID int, rs *RaceState, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.stations[stationID-1]
	if st.race != rs {
		log.Debug().Int("station_id", stationID).Msg("discarding stale tick")
		return
	}
	m.tickLocked(st, now)
}

func (m *Manager) tickLocked(st *station, now time.Time) TickResult {
	rs := st.race

	if delta := now.Sub(rs.LastTick); delta > 0 {
		rs.EnergyWh += delta.Seconds() * m.rates.Rate()
		rs.LastTick = now
	}

	elapsed := clampElapsed(now.Sub(rs.StartedAt))
	res := TickResult{
		Elapsed:  elapsed,
		Duration: FormatDuration(elapsed),
		EnergyWh: rs.EnergyWh,
	}

	m.emit(events.EventTypeRaceTick, st.id, now, events.RaceTickPayload{
		Duration:   res.Duration,
		EnergyWh:   res.EnergyWh,
		EnergyText: FormatEnergy(res.EnergyWh),
		TickedAt:   now,
	})
	return res
}

func (m *Manager) discardLocked(st *station) {
	if st.handle != nil {
		st.handle.Cancel()
		st.handle = nil
	}
	st.race = nil
}

// Station returns a snapshot of one station.
func (m *Manager) Station(stationID int) (models.Station, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.lookup(stationID)
	if err != nil {
		return models.Station{}, err
	}
	return m.snapshotLocked(st), nil
}

// Stations returns snapshots of every station in id order.
func (m *Manager) Stations() []models.Station {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Station, 0, NumStations)
	for _, st := range m.stations {
		out = append(out, m.snapshotLocked(st))
	}
	return out
}

// Close cancels all periodic ticking. Running races are discarded without events.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stopped int
	for _, st := range m.stations {
		if st.race != nil {
			m.discardLocked(st)
			stopped++
		}
	}
	log.Info().Int("stopped", stopped).Msg("race manager closed")
}

func (m *Manager) snapshotLocked(st *station) models.Station {
	snap := models.Station{
		ID:             st.id,
		DisplayName:    m.displayName(st),
		Status:         models.StationStatusIdle,
		BatteryPercent: st.batteryPercent,
		LowBattery:     st.batteryPercent < lowBatteryThreshold,
	}

	if st.assignedUserID != "" {
		id := st.assignedUserID
		snap.AssignedUserID = &id
		snap.AssignedName = models.UnknownUserName
		if user, ok := m.resolve(id); ok {
			snap.AssignedName = user.Name
		}
	}

	if rs := st.race; rs != nil {
		snap.Status = models.StationStatusRunning
		if snap.AssignedName == "" {
			snap.AssignedName = models.UnknownUserName
		}
		elapsed := clampElapsed(rs.LastTick.Sub(rs.StartedAt))
		snap.Race = &models.RaceStats{
			StartedAt:  rs.StartedAt,
			LastTickAt: rs.LastTick,
			Duration:   FormatDuration(elapsed),
			EnergyWh:   rs.EnergyWh,
			EnergyText: FormatEnergy(rs.EnergyWh),
		}
	}
	return snap
}

// displayName is "Cycle N" for an idle unassigned station and "<name>'s Cycle"
// otherwise, with the unknown-user name for ids that do not resolve.
func (m *Manager) displayName(st *station) string {
	if st.assignedUserID == "" {
		if st.race == nil {
			return fmt.Sprintf("Cycle %d", st.id)
		}
		return models.UnknownUserName + "'s Cycle"
	}
	if user, ok := m.resolve(st.assignedUserID); ok {
		return user.Name + "'s Cycle"
	}
	return models.UnknownUserName + "'s Cycle"
}

func (m *Manager) resolve(userID string) (models.User, bool) {
	if m.users == nil {
		return models.User{}, false
	}
	return m.users.Resolve(userID)
}

func (m *Manager) emit(eventType events.EventType, stationID int, at time.Time, payload interface{}) {
	if m.sink == nil {
		return
	}
	ev, err := events.New(eventType, stationID, at, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return
	}
	m.sink.Emit(ev)
}

func clampElapsed(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
