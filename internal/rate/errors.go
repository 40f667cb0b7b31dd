package rate

import "errors"

var (
	// ErrThrottled means the identifier or IP exhausted its failure budget
	// for the current window.
	ErrThrottled = errors.New("rate: login throttled")
	// ErrRedisUnavailable wraps every redis failure.
	ErrRedisUnavailable = errors.New("rate: redis unavailable")
	// ErrInvalidConfig is returned by New.
	ErrInvalidConfig = errors.New("rate: invalid config")
)
