// Package jwt inspects bearer tokens issued by the authentication service.
//
// The client never mints tokens. It reads their expiry and identity claims
// so that a persisted session can be judged expired without a network round
// trip. When a verification key is configured the signature is checked too;
// otherwise claims are read unverified and only ever used to shorten a
// session's life, never to extend it.
package jwt
