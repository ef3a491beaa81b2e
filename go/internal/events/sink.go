package events

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sink receives events from the core. Emit is called while the emitter holds
// its own lock, so implementations must not block and must not call back
// into the emitter.
type Sink interface {
	Emit(event Event)
}

// SinkFunc adapts a plain function to a Sink
type SinkFunc func(event Event)

// Emit calls f(event)
func (f SinkFunc) Emit(event Event) { f(event) }

// Fanout delivers every event to each of its sinks in order
type Fanout []Sink

// Emit forwards the event to all non-nil sinks
func (f Fanout) Emit(event Event) {
	for _, s := range f {
		if s != nil {
			s.Emit(event)
		}
	}
}

// LogSink writes events to the global logger. Ticks are logged at trace level
// since every running station produces one per interval.
type LogSink struct{}

// Emit logs the event
func (LogSink) Emit(event Event) {
	level := zerolog.DebugLevel
	if event.Type == EventTypeRaceTick {
		level = zerolog.TraceLevel
	}
	log.WithLevel(level).
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int("station_id", event.StationID).
		RawJSON("data", event.Data).
		Msg("event emitted")
}
