package models

import "time"

// StationStatus defines the race status of a station.
type StationStatus string

const (
	StationStatusIdle    StationStatus = "IDLE"
	StationStatusRunning StationStatus = "RUNNING"
)

// UnknownUserName is displayed for an assignment whose user id no longer resolves.
const UnknownUserName = "Unknown user"

// Station is a point-in-time view of one cycle station.
type Station struct {
	ID             int           `json:"id"`
	DisplayName    string        `json:"display_name"`
	Status         StationStatus `json:"status"`
	AssignedUserID *string       `json:"assigned_user_id"`
	AssignedName   string        `json:"assigned_name,omitempty"`
	BatteryPercent int           `json:"battery_percent"`
	LowBattery     bool          `json:"low_battery"`
	Race           *RaceStats    `json:"race,omitempty"`
}

// RaceStats holds the display values of a running race.
type RaceStats struct {
	StartedAt  time.Time `json:"started_at"`
	LastTickAt time.Time `json:"last_tick_at"`
	Duration   string    `json:"duration"`
	EnergyWh   float64   `json:"energy_wh"`
	EnergyText string    `json:"energy_text"`
}

// IsRunning reports whether the station has an active race.
func (s *Station) IsRunning() bool {
	return s.Status == StationStatusRunning
}
