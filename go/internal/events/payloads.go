package events

import (
	"time"

	"github.com/mcdev12/racecycles/go/internal/models"
)

// Event payload types shared between the race, users, gateway and publisher packages

// AssignmentChangedPayload is the payload for an AssignmentChanged event
type AssignmentChangedPayload struct {
	UserID      *string `json:"user_id"`
	DisplayName string  `json:"display_name"`
}

// RaceStartedPayload is the payload for a RaceStarted event
type RaceStartedPayload struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	StartedAt time.Time `json:"started_at"`
	Message   string    `json:"message"`
}

// RaceTickPayload is the payload for a RaceTick event
type RaceTickPayload struct {
	Duration   string    `json:"duration"`
	EnergyWh   float64   `json:"energy_wh"`
	EnergyText string    `json:"energy_text"`
	TickedAt   time.Time `json:"ticked_at"`
}

// RaceStoppedPayload is the payload for a RaceStopped event
type RaceStoppedPayload struct {
	Duration  string    `json:"duration"`
	EnergyWh  float64   `json:"energy_wh"`
	StoppedAt time.Time `json:"stopped_at"`
	Message   string    `json:"message"`
}

// UserRegisteredPayload is the payload for a UserRegistered event
type UserRegisteredPayload struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// StateSyncPayload carries every station snapshot to a newly connected client
type StateSyncPayload struct {
	Stations []models.Station `json:"stations"`
}
