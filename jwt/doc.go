// Package jwt issues the opaque session tokens handed to browser clients.
//
// Tokens carry the user id (uid) and user type (ut) next to the registered
// exp, iat and iss claims, signed with HS256 or Ed25519.
//
// # Architecture boundaries
//
// The session store treats tokens as opaque strings and never calls Parse.
// Parsing exists for the authentication provider and for API consumers that
// receive the token downstream.
package jwt
