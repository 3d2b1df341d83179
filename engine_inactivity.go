package goAuthClient

import (
	"context"
	"time"

	"github.com/MrEthical07/goAuthClient/idle"
)

// Activity reports a user interaction. Kinds listed in Inactivity.Events
// restart the idle period; others are ignored.
func (e *Engine) Activity(kind idle.EventKind) {
	e.bus.Publish(kind)
}

// InactivityArmed reports whether an inactivity monitor is running.
func (e *Engine) InactivityArmed() bool {
	return e.monitor.Armed()
}

// armMonitor replaces any running monitor. The callbacks are bound to epoch
// so a monitor that outlives its session does nothing.
func (e *Engine) armMonitor(epoch uint64) {
	if !e.config.Inactivity.Enabled {
		return
	}
	_, err := e.monitor.Arm(idle.Options{
		Timeout:     e.config.Inactivity.Timeout,
		WarningLead: e.warningLead(),
		Events:      e.config.Inactivity.events(),
		Source:      e.activity,
		Clock:       e.clock,
		Logger:      e.logger,
		OnTimeout:   func() { e.onIdleTimeout(epoch) },
		OnWarning:   func(w idle.Warning) { e.onIdleWarning(epoch, w) },
	})
	if err != nil {
		e.logger.Error("inactivity monitor not armed", "error", err)
	}
}

// warningLead maps the config onto idle.Options, where zero means the
// package default and a negative lead disables the warning.
func (e *Engine) warningLead() time.Duration {
	if e.config.Inactivity.WarningLead <= 0 {
		return -1
	}
	return e.config.Inactivity.WarningLead
}

func (e *Engine) onIdleTimeout(epoch uint64) {
	if !e.epochIs(epoch) {
		return
	}
	ctx := context.Background()
	if d := e.config.Security.LogoutTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*d)
		defer cancel()
	}
	e.Logout(ctx, true)
}

func (e *Engine) onIdleWarning(epoch uint64, w idle.Warning) {
	if !e.epochIs(epoch) {
		return
	}
	e.metrics.Inc(MetricInactivityWarning)
	e.logger.Debug("inactivity warning", "remaining", w.Remaining)
	if e.onWarning != nil {
		e.onWarning(w)
	}
}

// sources fans Subscribe out to several sources.
type sources []idle.Source

func (s sources) Subscribe(fn func(idle.EventKind)) func() {
	unsubs := make([]func(), 0, len(s))
	for _, src := range s {
		unsubs = append(unsubs, src.Subscribe(fn))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
