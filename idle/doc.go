// Package idle implements the inactivity monitor that ends a portal session
// after a period without user interaction.
//
// A [Monitor] is armed with a timeout callback, an optional warning
// callback, and a [Source] of interaction events. Each qualifying event
// restarts the idle period. The warning fires at most once per idle period;
// the timeout fires at most once per arm cycle and disarms the monitor
// before the callback runs.
//
// Timers come from github.com/benbjohnson/clock so tests can drive time
// with a mock clock.
package idle
