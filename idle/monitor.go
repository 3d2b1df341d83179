package idle

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	DefaultTimeout     = 15 * time.Minute
	DefaultWarningLead = 2 * time.Minute
)

// ErrTimeoutCallbackRequired is returned by Arm when OnTimeout is nil.
var ErrTimeoutCallbackRequired = errors.New("idle: timeout callback is required")

// Warning is passed to OnWarning ahead of the timeout.
type Warning struct {
	Remaining time.Duration
	Total     time.Duration
}

// Options configures a Monitor. Zero values take the package defaults.
type Options struct {
	Timeout time.Duration
	// WarningLead is how long before the timeout OnWarning fires. Negative
	// disables the warning. Values >= Timeout disable it as well.
	WarningLead time.Duration
	OnTimeout   func()
	OnWarning   func(Warning)
	Events      []EventKind
	Source      Source
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Monitor watches for inactivity. A nil *Monitor is a valid, disarmed
// monitor.
type Monitor struct {
	mu          sync.Mutex
	opts        Options
	events      map[EventKind]struct{}
	armed       bool
	gen         uint64
	warned      bool
	timeout     *clock.Timer
	warning     *clock.Timer
	unsubscribe func()
}

// Arm starts a monitor. Without OnTimeout the misconfiguration is logged and
// a disarmed monitor is returned together with ErrTimeoutCallbackRequired,
// so callers can always Disarm the result.
func Arm(opts Options) (*Monitor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.OnTimeout == nil {
		opts.Logger.Error("inactivity monitor not armed", "error", ErrTimeoutCallbackRequired)
		return &Monitor{}, ErrTimeoutCallbackRequired
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WarningLead == 0 {
		opts.WarningLead = DefaultWarningLead
	}
	if len(opts.Events) == 0 {
		opts.Events = DefaultEvents()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	m := &Monitor{
		opts:   opts,
		events: make(map[EventKind]struct{}, len(opts.Events)),
		armed:  true,
	}
	for _, kind := range opts.Events {
		m.events[kind] = struct{}{}
	}

	m.mu.Lock()
	m.restartLocked()
	m.mu.Unlock()

	if opts.Source != nil {
		unsub := opts.Source.Subscribe(m.handle)
		m.mu.Lock()
		if m.armed {
			m.unsubscribe = unsub
			unsub = nil
		}
		m.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	}

	opts.Logger.Debug("inactivity monitor armed",
		"timeout", opts.Timeout,
		"warning_lead", opts.WarningLead,
	)
	return m, nil
}

// Armed reports whether the monitor is still watching.
func (m *Monitor) Armed() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed
}

// Touch restarts the idle period as if a qualifying event had arrived.
func (m *Monitor) Touch() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.armed {
		m.restartLocked()
	}
}

// Disarm stops the timers and detaches from the event source. It is
// idempotent and safe on a nil or never-armed monitor.
func (m *Monitor) Disarm() {
	if m == nil {
		return
	}
	m.mu.Lock()
	unsub := m.disarmLocked()
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (m *Monitor) handle(kind EventKind) {
	if _, ok := m.events[kind]; !ok {
		return
	}
	m.Touch()
}

func (m *Monitor) restartLocked() {
	m.stopTimersLocked()
	m.gen++
	m.warned = false
	gen := m.gen

	m.timeout = m.opts.Clock.AfterFunc(m.opts.Timeout, func() { m.fire(gen) })
	if lead := m.opts.WarningLead; lead > 0 && lead < m.opts.Timeout {
		m.warning = m.opts.Clock.AfterFunc(m.opts.Timeout-lead, func() { m.warn(gen) })
	}
}

func (m *Monitor) stopTimersLocked() {
	if m.timeout != nil {
		m.timeout.Stop()
		m.timeout = nil
	}
	if m.warning != nil {
		m.warning.Stop()
		m.warning = nil
	}
}

func (m *Monitor) disarmLocked() func() {
	if !m.armed {
		return nil
	}
	m.armed = false
	m.gen++
	m.stopTimersLocked()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	return unsub
}

func (m *Monitor) warn(gen uint64) {
	m.mu.Lock()
	if !m.armed || gen != m.gen || m.warned {
		m.mu.Unlock()
		return
	}
	m.warned = true
	cb := m.opts.OnWarning
	w := Warning{Remaining: m.opts.WarningLead, Total: m.opts.Timeout}
	m.mu.Unlock()

	if cb != nil {
		cb(w)
	}
}

func (m *Monitor) fire(gen uint64) {
	m.mu.Lock()
	if !m.armed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	unsub := m.disarmLocked()
	cb := m.opts.OnTimeout
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	m.opts.Logger.Info("inactivity timeout reached", "timeout", m.opts.Timeout)
	cb()
}

// Slot holds at most one armed monitor. Arming through a Slot disarms the
// previous monitor first.
type Slot struct {
	mu      sync.Mutex
	current *Monitor
}

// Arm disarms the held monitor, then arms a new one with opts.
func (s *Slot) Arm(opts Options) (*Monitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Disarm()
	s.current = nil

	m, err := Arm(opts)
	if err != nil {
		return m, err
	}
	s.current = m
	return m, nil
}

// Disarm disarms the held monitor, if any.
func (s *Slot) Disarm() {
	s.mu.Lock()
	m := s.current
	s.current = nil
	s.mu.Unlock()
	m.Disarm()
}

// Armed reports whether the held monitor is armed.
func (s *Slot) Armed() bool {
	s.mu.Lock()
	m := s.current
	s.mu.Unlock()
	return m.Armed()
}
