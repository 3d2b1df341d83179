package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event types sent to the collector.
const (
	TypeAuthActivity = "auth_activity"
	TypeNavigation   = "navigation"
)

// Event is one activity record.
type Event struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"eventType"`
	Action    string            `json:"action"`
	Path      string            `json:"path,omitempty"`
	DeviceID  string            `json:"deviceId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// NewEvent stamps an event with a sortable unique id and the current time.
func NewEvent(eventType, action string) Event {
	now := time.Now()
	return Event{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Timestamp: now.UTC(),
		EventType: eventType,
		Action:    action,
	}
}

// Sink receives emitted events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// Sender posts one event body to the collector.
type Sender interface {
	SendEvent(ctx context.Context, body any) error
}

// CollectorSink forwards events through a Sender with a per-event timeout.
// Failures are logged at debug level and otherwise ignored.
type CollectorSink struct {
	sender  Sender
	timeout time.Duration
	logger  *slog.Logger
}

// NewCollectorSink wraps sender. A zero timeout defaults to five seconds.
func NewCollectorSink(sender Sender, timeout time.Duration, logger *slog.Logger) *CollectorSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CollectorSink{sender: sender, timeout: timeout, logger: logger}
}

func (s *CollectorSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.sender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.sender.SendEvent(ctx, event); err != nil {
		s.logger.Debug("telemetry delivery failed", "action", event.Action, "error", err)
	}
}

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event)
		}
	}
}
