package constants

// Upstream client error codes
const (
	ErrCodeAuthFailed   = "AUTH_FAILED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeAPIError     = "API_ERROR"
	ErrCodeNetworkError = "NETWORK_ERROR"
)

var errorMessages = map[string]string{
	ErrCodeAuthFailed:   "Authentication with the JIRA instance failed",
	ErrCodeRateLimited:  "JIRA rate limit exceeded",
	ErrCodeAPIError:     "JIRA API request failed",
	ErrCodeNetworkError: "Could not reach the JIRA instance",
}

// GetErrorMessage returns the default message for an error code.
func GetErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}
