// Package password holds the client-side password rules: the strength
// policy a new password must satisfy before it is sent to the backend, and
// the Argon2id key derivation used to seal locally persisted sessions.
//
// # Architecture boundaries
//
// This package never hashes passwords for storage and never talks to the
// backend. Server-side verification belongs to the authentication service.
//
// # What this package must NOT do
//
//   - Import any other goAuthClient package.
//   - Log plaintext passwords or derived keys.
package password
