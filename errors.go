package parley

import "errors"

var (
	// ErrValidation is an exported constant or variable used by the session engine.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials is an exported constant or variable used by the session engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant or variable used by the session engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is an exported constant or variable used by the session engine.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrSessionNotFound is an exported constant or variable used by the session engine.
	ErrSessionNotFound = errors.New("no active session")
	// ErrSessionExpired is an exported constant or variable used by the session engine.
	ErrSessionExpired = errors.New("session expired")
	// ErrRateLimited is an exported constant or variable used by the session engine.
	ErrRateLimited = errors.New("hourly request quota exceeded")
	// ErrQuotaExhausted is an exported constant or variable used by the session engine.
	ErrQuotaExhausted = errors.New("no conversation minutes remaining")
	// ErrTokenInvalid is an exported constant or variable used by the session engine.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrStoreUnavailable is an exported constant or variable used by the session engine.
	ErrStoreUnavailable = errors.New("storage backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the session engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
