package authcore

import (
	"errors"

	"github.com/veltrix-io/authcore/revocation"
	"github.com/veltrix-io/authcore/token"
)

var (
	// ErrUnauthorized covers every token-side rejection: bad signature,
	// expiry, revocation, kind mismatch, lost rotation race.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is the single credential-failure answer. Wrong
	// password and unknown identity both map here so callers cannot
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStrategyNotFound means no strategy is registered under the
	// requested name.
	ErrStrategyNotFound = errors.New("authentication strategy not found")
	// ErrUserNotFound means a directory lookup by ID found nothing, e.g.
	// the account was deleted while its refresh token was still alive.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser means a create collided with an existing ID or email.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrLoginRateLimited means the login throttle budget is exhausted.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrEngineNotReady means the engine was used before Build completed.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrTokenInvalid is the token service's uniform verification failure,
// re-exported so callers only import authcore.
var ErrTokenInvalid = token.ErrInvalid

// ErrRevocationUnavailable wraps revocation store outages surfaced by
// Logout and Refresh.
var ErrRevocationUnavailable = revocation.ErrUnavailable
