// Package middleware exposes HTTP middleware adapters that apply the route
// guard of goAuthClient to a server-rendered portal or a backend-for-frontend.
//
// # Guards
//
//   - [RequireRoles]: role-gated route for a [SubjectSource].
//   - [PublicOnly]: signed-out-only route such as the login page.
//   - [RequireEngineRoles] / [EnginePublicOnly]: the same, reading the Engine.
//   - [RequireBearer]: stateless guard that reads the role claim of the
//     request's bearer token, without any session store.
//
// Decisions map onto HTTP as follows: render calls the next handler, loading
// answers 503 with Retry-After, blocked answers 403 and redirect answers
// 303 See Other.
//
// # What this package must NOT do
//
//   - Decide access itself (decisions come from access.Policy).
//   - Start, end or refresh sessions.
package middleware
