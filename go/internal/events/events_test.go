package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndParseRaceTick(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev, err := New(EventTypeRaceTick, 3, at, RaceTickPayload{
		Duration:   "01:15",
		EnergyWh:   42.5,
		EnergyText: "42.5 Wh",
		TickedAt:   at,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 3, ev.StationID)
	assert.Equal(t, at, ev.Timestamp)

	payload, err := ParseEventPayload(&ev)
	require.NoError(t, err)
	tick, ok := payload.(RaceTickPayload)
	require.True(t, ok, "expected RaceTickPayload, got %T", payload)
	assert.Equal(t, "01:15", tick.Duration)
	assert.InDelta(t, 42.5, tick.EnergyWh, 1e-9)
}

func TestParseUnknownType(t *testing.T) {
	ev := Event{Type: "Nope", Data: []byte(`{}`)}
	payload, err := ParseEventPayload(&ev)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestParseMalformedPayload(t *testing.T) {
	ev := Event{Type: EventTypeRaceStarted, Data: []byte(`{"user_id": 7}`)}
	_, err := ParseEventPayload(&ev)
	assert.Error(t, err)
}

func TestFanoutSkipsNilSinks(t *testing.T) {
	var got []EventType
	rec := SinkFunc(func(e Event) { got = append(got, e.Type) })

	f := Fanout{rec, nil, rec}
	f.Emit(Event{Type: EventTypeRaceStopped})

	assert.Equal(t, []EventType{EventTypeRaceStopped, EventTypeRaceStopped}, got)
}
