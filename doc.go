// Package makola wires the Makola Connect session core: per-client session
// stores persisted in Redis, the role-based route guard, the authentication
// provider, media uploads, audit and metrics.
//
// Engine methods are safe for concurrent use after [Builder.Build].
//
// # Architecture boundaries
//
// makola is the composition root. Session semantics live in session/, access
// decisions in guard/, the HTTP binding in middleware/. This package connects
// them and observes them; it adds no session or authorization rules of its
// own.
//
// # What this package must NOT do
//
//   - Mutate a session outside Engine.Login and Engine.Logout.
//   - Validate or refresh tokens after login; the store trusts them verbatim.
//   - Import metrics/export or internal/app (no import cycles).
package makola
