// Package access decides what a portal route should do for the current
// viewer: render, show a loading state, show a blocked notice, or redirect.
//
// Decisions are pure functions of a [Subject] snapshot and the route's
// allowed [RoleSet]; they perform no I/O and never navigate on their own.
// The middleware package adapts them to net/http.
package access
