package rate

import "errors"

var (
	// ErrRateLimited means the caller exhausted its attempt budget for the
	// current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport failures talking to the counter
	// backend.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
