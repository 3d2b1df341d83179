// Package session owns the persisted authentication record of the portal
// client: the Session model, its JSON envelope, and the Store that reads and
// writes it through a pluggable Backend.
//
// # Encoding
//
// Records are written as a versioned JSON envelope. The bare session object
// written by earlier browser builds (no version member) is still readable.
// A record missing its user or token decodes as [ErrSessionIncomplete] and
// the Store reports it as absent.
//
// # Backends
//
//   - [MemoryBackend]: process memory only.
//   - [FileBackend]: one file per key, optionally sealed with
//     XChaCha20-Poly1305 under an Argon2id-derived key, watchable across
//     processes.
//   - [RedisBackend]: shared session space for a backend-for-frontend.
//   - [BadgerBackend]: embedded database.
//
// # What this package must NOT do
//
//   - Import goAuthClient, jwt, or access (no upward imports).
//   - Call the authentication service.
//   - Decide navigation or authorization.
package session
