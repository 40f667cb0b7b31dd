package makola

import "errors"

var (
	// ErrNotWired is returned by Build when a required collaborator is missing.
	ErrNotWired = errors.New("makola: not wired")
	// ErrBuilderUsed is returned by a second Build on the same Builder.
	ErrBuilderUsed = errors.New("makola: builder already used")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("makola: invalid config")
	// ErrInvalidCredentials is returned by Login for an unknown identifier or
	// a wrong password.
	ErrInvalidCredentials = errors.New("makola: invalid credentials")
	// ErrLoginThrottled is returned by Login while the identifier or client IP
	// is locked out by the failed-login throttle.
	ErrLoginThrottled = errors.New("makola: login throttled")
	// ErrEngineClosed is returned by Engine operations after Close.
	ErrEngineClosed = errors.New("makola: engine closed")
)
