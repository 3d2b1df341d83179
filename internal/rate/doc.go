// Package rate provides the client-side submission controls used by the
// engine's network flows.
//
//   - [Gate]: per-operation in-flight flag. A second submission of an
//     operation that is still running is refused instead of queued.
//   - [Throttle]: token bucket bounding how often credentials can be
//     submitted at all.
//
// # What this package must NOT do
//
//   - Talk to the authentication service.
//   - Be imported outside the goAuthClient module.
package rate
