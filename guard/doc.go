// Package guard decides whether a protected view may render for the current
// session, and where to send the client when it may not.
//
// [Decide] is a pure function of a [session.State] snapshot, a per-route
// [Policy] and the redirect [Routes]. The unauthenticated check always runs
// before the role check, so an anonymous client is sent to the login view
// even when the route's role list would also reject it.
//
// A [Guard] binds a policy to a session source and re-runs Decide on every
// evaluation; it never mutates the session.
package guard
