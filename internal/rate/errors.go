package rate

import "errors"

var (
	// ErrInFlight is returned when the same operation is already running.
	ErrInFlight = errors.New("operation already in progress")
	// ErrRateLimited is returned when the submission throttle is exhausted.
	ErrRateLimited = errors.New("rate limited")
)
