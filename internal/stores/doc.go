// Package stores holds short-lived, in-memory records for multi-step
// authentication flows: the pending 2FA challenge and the pending forced
// password change issued by the authentication service.
//
// # Design
//
// A challenge is single-use and expires after a TTL. At most one challenge
// is pending at a time; a new challenge replaces the previous one. Tokens are
// compared in constant time.
//
// # What this package must NOT do
//
//   - Persist challenge tokens to disk.
//   - Import goAuthClient or any sibling internal package.
package stores
