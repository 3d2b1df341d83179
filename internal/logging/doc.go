// Package logging builds the structured loggers used across goAuthClient.
//
// Every handler built here redacts attributes whose key names a credential
// (token, password, secret and similar) and masks JWT-shaped string values
// regardless of key, so bearer tokens never reach log output.
//
// # What this package must NOT do
//
//   - Keep a process-wide default logger.
//   - Import goAuthClient.
package logging
