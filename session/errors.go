package session

import "errors"

var (
	// ErrNotWired is returned when a store or registry is constructed without
	// its required collaborators. It indicates a composition bug.
	ErrNotWired = errors.New("session: not wired")
	// ErrNoStoreInContext is the panic value of MustFromContext.
	ErrNoStoreInContext = errors.New("session: no store in context")
	// ErrInvalidUser is returned by Login when the identity is missing an id or
	// carries an unknown role.
	ErrInvalidUser = errors.New("session: invalid user")
	// ErrInvalidToken is returned by Login for an empty token.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrStoreClosed is returned by Login after Close.
	ErrStoreClosed = errors.New("session: store closed")
	// ErrMalformedUser is returned when a persisted user payload cannot be decoded.
	ErrMalformedUser = errors.New("session: malformed persisted user")
	// ErrStorageUnavailable wraps persistence backend failures.
	ErrStorageUnavailable = errors.New("session: storage unavailable")
	// ErrInvalidClientID is returned by Registry.Open for an empty client id.
	ErrInvalidClientID = errors.New("session: invalid client id")
)
