package race

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racecycles/go/internal/models"
)

// NumStations is the fixed number of cycle stations, numbered 1..NumStations.
const NumStations = 8

// DefaultTickInterval is how often a running station's stats are advanced.
const DefaultTickInterval = time.Second

var (
	// ErrInvalidStation is returned for station ids outside 1..NumStations
	ErrInvalidStation = errors.New("invalid station")
	// ErrNoUserAssigned is returned when starting a race on a station without a resolvable user
	ErrNoUserAssigned = errors.New("no user assigned")
	// ErrAlreadyRunning is returned when starting a race on a station that already has one
	ErrAlreadyRunning = errors.New("race already running")
	// ErrNotRunning is returned when stopping or ticking a station without a race
	ErrNotRunning = errors.New("race not running")
)

// RaceState is the mutable record of an in-progress race.
// LastTick never precedes StartedAt and EnergyWh never decreases.
type RaceState struct {
	StartedAt time.Time
	LastTick  time.Time
	EnergyWh  float64
}

// TickResult is what a single tick produced for display.
type TickResult struct {
	Elapsed  time.Duration
	Duration string
	EnergyWh float64
}

// UserResolver defines what the manager needs from the user directory
type UserResolver interface {
	Resolve(userID string) (models.User, bool)
}

// Config holds the manager's collaborators. Zero values fall back to the
// real clock, a clock-driven scheduler, a uniform 0.5-1.0 rate and random
// battery levels.
type Config struct {
	TickInterval time.Duration
	Clock        clockwork.Clock
	Scheduler    Scheduler
	Rates        RateProvider
	BatteryLevel func(stationID int) int
}
