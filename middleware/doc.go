// Package middleware binds the session store and the route guard to HTTP.
//
// # Chain
//
//   - [Session] identifies the browser client by cookie, opens its hydrated
//     store and attaches it to the request context.
//   - [Guard] evaluates a [guard.Policy] against one snapshot of that store
//     and either calls the view or answers with a bodiless redirect.
//   - [Gin] adapts either middleware to a gin router.
//
// # Architecture boundaries
//
// This package translates HTTP into store and guard calls. It does NOT decide
// access itself (guard.Decide does) and never mutates a session.
//
// # What this package must NOT do
//
//   - Call Store.Login or Store.Logout.
//   - Write a response body on redirect.
//   - Fall back to an anonymous session when the store is missing from the
//     context; that is a wiring bug and panics.
package middleware
