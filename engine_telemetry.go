package goAuthClient

import (
	"context"

	"github.com/MrEthical07/goAuthClient/internal/telemetry"
)

// ActionRouteChange is the action of navigation events.
const ActionRouteChange = "route_change"

// TrackNavigation reports a route change. It never blocks on the collector.
func (e *Engine) TrackNavigation(ctx context.Context, path string) {
	if !e.config.Telemetry.TrackNavigation {
		return
	}
	ev := telemetry.NewEvent(telemetry.TypeNavigation, ActionRouteChange)
	ev.Path = path
	if user := e.User(); user != nil {
		ev.Metadata = map[string]string{"role": string(user.Role.Normalize())}
	}
	e.emit(ctx, ev)
}

func (e *Engine) emitAuth(ctx context.Context, action string, metadata map[string]string) {
	ev := telemetry.NewEvent(telemetry.TypeAuthActivity, action)
	ev.Metadata = metadata
	e.emit(ctx, ev)
}

func (e *Engine) emit(ctx context.Context, ev telemetry.Event) {
	if e.telemetry == nil {
		return
	}
	if ev.Path == "" {
		ev.Path = pathFromContext(ctx)
	}
	ev.DeviceID = e.DeviceID(ctx)
	e.telemetry.Emit(ctx, ev)
}

// DeviceID returns the persistent device identifier used to correlate
// telemetry. It is never used for authorization.
func (e *Engine) DeviceID(ctx context.Context) string {
	e.mu.RLock()
	id := e.deviceID
	e.mu.RUnlock()
	if id != "" {
		return id
	}

	id, err := e.store.DeviceID(ctx)
	if err != nil {
		e.logger.Debug("device id unavailable", "error", err)
		return ""
	}
	e.mu.Lock()
	e.deviceID = id
	e.mu.Unlock()
	return id
}
