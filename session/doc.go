// Package session owns the per-client authentication state of Makola Connect:
// who is logged in, with which role, and under which opaque session token.
//
// # State model
//
// A [Store] holds a [State] made of an optional [User] and an optional token.
// Both are set together by [Store.Login] and cleared together by
// [Store.Logout]; there is no partially authenticated state. The derived
// [State.IsAuthenticated] is recomputed on every read.
//
// # Persistence
//
// The durable copy lives behind the [Persistence] boundary as two string
// slots (token and serialized user). [RedisPersistence] keys both slots by
// the browser client id. Persistence is best-effort: the in-memory state is
// authoritative for the lifetime of the store even when a write fails.
//
// # Architecture boundaries
//
// This package does NOT verify tokens, authenticate credentials or make
// routing decisions. Credentials are checked by package auth; route access is
// decided by package guard, which only reads [State] snapshots.
//
// # What this package must NOT do
//
//   - Import guard, middleware or the root makola package (no upward imports).
//   - Return persistence failures from Hydrate, Login or Logout.
//   - Expose mutable references to the current state.
package session
