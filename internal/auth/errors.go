package auth

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInvalidCredentials is returned for any failed login: unknown user, inactive user or wrong
	// password. The message never tells which one.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrRateLimited is returned when the login attempt budget for an identifier is exhausted.
	ErrRateLimited = errors.New("too many login attempts, please try again later")

	// ErrAuthUnavailable is returned when a login could not be decided, e.g. the credential
	// lookup timed out or the rate limiter backend failed.
	ErrAuthUnavailable = errors.New("authentication temporarily unavailable")

	// ErrNoSession is returned by the gate when the request carries no valid claim.
	ErrNoSession = errors.New("Unauthorized") //nolint:stylecheck // wire payload

	// ErrInsufficientPermission is returned by the gate when the claim lacks the required key.
	ErrInsufficientPermission = errors.New("Forbidden") //nolint:stylecheck // wire payload

	// ErrInvalidToken is returned when a session token fails signature or claim validation.
	ErrInvalidToken = errors.New("invalid session token")
)

// RateLimitError carries the time until the identifier may try again.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return ErrRateLimited.Error()
}

// Is makes errors.Is(err, ErrRateLimited) hold.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds the wait up to whole seconds, minimum one.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}

	return secs
}

// ValidationError reports caller mistakes such as unregistered permission keys.
type ValidationError struct {
	// Keys lists offending permission keys, sorted.
	Keys []string
	// Reason is set for non-key problems (e.g. an empty role name).
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Keys) > 0 {
		return "unknown permission keys: " + strings.Join(e.Keys, ", ")
	}

	return "validation failed: " + e.Reason
}

// NewUnknownKeysError builds a ValidationError naming the unknown keys.
func NewUnknownKeysError(keys []string) *ValidationError {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	return &ValidationError{Keys: sorted}
}

// ConflictError is returned when a role cannot be deleted.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}
