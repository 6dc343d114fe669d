package providers

import (
	"errors"
	"fmt"
	"time"

	"jirapulse/internal/constants"
)

// ProviderError is the structured error returned by upstream clients.
// RetryAfter carries the server's hint on rate-limit responses.
type ProviderError struct {
	Code       string
	Message    string
	Details    string
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is an authentication failure. Auth errors
// are never retried and fail only the owning instance's projects.
func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeAuthFailed
}

// IsRateLimitError reports whether err is a rate-limit rejection.
func IsRateLimitError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == constants.ErrCodeRateLimited
}
