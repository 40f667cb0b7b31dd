// Package auth is the authentication provider in front of the session store.
//
// It resolves an identifier (email or phone) to an account, verifies the
// password and issues a signed token. The session store accepts the returned
// user and token verbatim; nothing in this package touches sessions.
package auth
