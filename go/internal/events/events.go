package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope for everything the core reports to the presentation layer
type Event struct {
	ID        string          `json:"id"`         // Event UUID
	Type      EventType       `json:"type"`       // Event type
	StationID int             `json:"station_id"` // 1..8, or 0 for roster-wide events
	Timestamp time.Time       `json:"timestamp"`  // Event creation time
	Data      json.RawMessage `json:"data"`       // Event-specific payload
}

// EventType represents the type of station event
type EventType string

const (
	EventTypeAssignmentChanged EventType = "AssignmentChanged"
	EventTypeRaceStarted       EventType = "RaceStarted"
	EventTypeRaceTick          EventType = "RaceTick"
	EventTypeRaceStopped       EventType = "RaceStopped"
	EventTypeUserRegistered    EventType = "UserRegistered"
	EventTypeStateSync         EventType = "StateSync"
)

// New builds an event envelope around payload
func New(eventType EventType, stationID int, at time.Time, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		StationID: stationID,
		Timestamp: at,
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *Event) (interface{}, error) {
	switch event.Type {
	case EventTypeAssignmentChanged:
		var payload AssignmentChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRaceStarted:
		var payload RaceStartedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRaceTick:
		var payload RaceTickPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRaceStopped:
		var payload RaceStoppedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeUserRegistered:
		var payload UserRegisteredPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeStateSync:
		var payload StateSyncPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
