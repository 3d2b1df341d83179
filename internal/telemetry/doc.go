// Package telemetry implements fire-and-forget delivery of security activity
// events (logins, logouts, route changes) to the portal's event collector.
//
// # Components
//
//   - [Sink]: event consumer (HTTP collector, channel, JSON writer, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: activity record with type, action, path, device id and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. It does NOT decide which events
// to emit; the Engine does. Delivery failures never reach the caller.
//
// # What this package must NOT do
//
//   - Block an authentication flow on collector availability.
//   - Import goAuthClient or any sibling internal package.
package telemetry
