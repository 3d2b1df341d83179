// Package transport is the JSON-over-HTTP client for the portal's
// authentication service.
//
// Every call takes a context and is bounded by the client timeout. Non-2xx
// responses become a [*ServerError] carrying the service's message; network
// and decoding failures wrap [ErrUnavailable]. The package holds no session
// state: bearer tokens are passed in by the caller.
package transport
