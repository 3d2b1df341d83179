// Package flows contains the orchestrators behind every Engine operation
// that talks to the authentication service.
//
// Each flow (RunLogin, RunRefresh, RunLogout) accepts a typed dependency
// struct of funcs and returns a result value. Flows never panic and never
// return a bare error for an expected outcome: server rejections, transport
// failures and branch responses are all classified into the result.
//
// # Architecture boundaries
//
// Flow functions coordinate the transport, the session store, the
// inactivity monitor and telemetry through their deps. They do NOT own any
// of these resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Decide navigation.
package flows
