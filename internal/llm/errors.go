package llm

import "errors"

var (
	// ErrUnavailable indicates the endpoint could not be reached.
	ErrUnavailable = errors.New("llm endpoint unavailable")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the response could not be parsed into the
	// expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates all retry attempts failed.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrRejected indicates the endpoint refused the request (4xx other
	// than 429). Such requests are not retried.
	ErrRejected = errors.New("llm request rejected")
)
