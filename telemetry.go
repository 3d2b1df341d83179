package goAuthClient

import (
	"io"

	"github.com/MrEthical07/goAuthClient/internal/telemetry"
)

// Event types carried by TelemetryEvent.EventType.
const (
	EventTypeAuthActivity = telemetry.TypeAuthActivity
	EventTypeNavigation   = telemetry.TypeNavigation
)

// TelemetryEvent is one security activity record.
type TelemetryEvent = telemetry.Event

// TelemetrySink receives events from the engine's dispatcher goroutine.
type TelemetrySink = telemetry.Sink

// NoOpSink discards events.
type NoOpSink = telemetry.NoOpSink

// ChannelSink delivers events on a channel, mostly for tests.
type ChannelSink = telemetry.ChannelSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return telemetry.NewChannelSink(buffer)
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = telemetry.JSONWriterSink

// NewJSONWriterSink returns a sink writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return telemetry.NewJSONWriterSink(w)
}
