package errors

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Rate limit metadata headers sent by the feed API
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RateLimitError is returned when the feed API refuses a request because the
// caller's quota is exhausted. It is a terminal signal for a run, not a fault.
type RateLimitError struct {
	Code      int
	Limit     int
	Remaining int
	// Reset is the moment the quota window reopens; zero when the API did not say.
	Reset time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate_limit error (code %d): limit %d, remaining %d, resets at %s",
		e.Code, e.Limit, e.Remaining, e.Reset.Format(time.RFC3339))
}

// WaitSeconds returns the number of whole seconds until the quota resets,
// measured from now. Never negative.
func (e *RateLimitError) WaitSeconds(now time.Time) int64 {
	if e.Reset.IsZero() {
		return 0
	}
	wait := e.Reset.Unix() - now.Unix()
	if wait < 0 {
		return 0
	}
	return wait
}

// RateLimitFromResponse inspects an error response and returns a
// RateLimitError if it carries a rate-limit signal: status 429, or any error
// status whose remaining-quota header is zero. It returns nil otherwise.
func RateLimitFromResponse(resp *http.Response) *RateLimitError {
	if resp == nil || resp.StatusCode < 400 {
		return nil
	}

	remainingHeader := resp.Header.Get(HeaderRateLimitRemaining)
	remaining, remainingErr := strconv.Atoi(remainingHeader)
	exhausted := remainingHeader != "" && remainingErr == nil && remaining <= 0

	if resp.StatusCode != http.StatusTooManyRequests && !exhausted {
		return nil
	}

	rl := &RateLimitError{Code: resp.StatusCode}
	if limit, err := strconv.Atoi(resp.Header.Get(HeaderRateLimitLimit)); err == nil {
		rl.Limit = limit
	}
	if remainingErr == nil {
		rl.Remaining = remaining
	}
	if reset, err := strconv.ParseInt(resp.Header.Get(HeaderRateLimitReset), 10, 64); err == nil && reset > 0 {
		rl.Reset = time.Unix(reset, 0)
	}
	return rl
}

// TypeForStatus maps an HTTP error status onto an ErrorType
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
