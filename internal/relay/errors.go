package relay

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse marks a 2xx answer whose body is not a relay record.
var ErrMalformedResponse = errors.New("invalid response")

// ConnectionError is returned when the relay could not be reached at all.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ServerError is returned for non-2xx HTTP answers.
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %d", e.Code)
}

// RejectedError is a 2xx answer the relay did not accept, e.g. a bad license.
type RejectedError struct {
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	return e.Reason
}

func (e *RejectedError) Unwrap() error { return e.Err }
