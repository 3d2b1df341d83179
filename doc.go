// Package goAuthClient is the session and access-control engine of a portal
// client. It talks to the authentication service, keeps the session in a
// pluggable store, signs the user out after inactivity and decides which
// views a role may see.
//
// An [Engine] is created through [Builder.Build] and started with
// [Engine.Init]. Engine methods are safe to call from multiple goroutines
// after initialization.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Engine], [Builder], [Config]
// and result value types (LoginResult, LogoutResult, RefreshResult, etc.).
// Flow orchestration, challenge bookkeeping, submission throttling and
// telemetry dispatch live under internal/ and are never exported.
//
// Sub-packages:
//
//   - session: session record, encoding, store and backends
//   - access: roles, route policy and the render/redirect decision
//   - idle: inactivity monitor and activity sources
//   - jwt: expiry inspection of bearer tokens
//   - password: password policy
//   - transport: HTTP client for the authentication service
//   - middleware: HTTP guards for server-rendered portals
//   - metrics/export: Prometheus and OpenTelemetry exporters
//
// # What this package must NOT do
//
//   - Hold a lock across a network call.
//   - Persist anything for a 2FA or password-change challenge.
//   - Let a stale refresh or inactivity callback touch a newer session.
//
// # Results, not errors
//
// Login, Logout, RefreshToken and UpdateProfile return result values carrying
// a user-facing Message and, when failed, an Err that matches one of the
// sentinel errors with errors.Is.
package goAuthClient
