package encryption

import (
	"fmt"

	"github.com/allisson/tokenfield/internal/errors"
)

var (
	// ErrConnectivity indicates the transport could not reach the encryption
	// service at all.
	ErrConnectivity = errors.Wrap(errors.ErrUnavailable, "encryption service unreachable")

	// ErrServiceResponse indicates the service answered with a non-success
	// status. The concrete status and message travel in ResponseError.
	ErrServiceResponse = errors.New("encryption service error")
)

// ResponseError carries the status code and message of a non-success service
// response.
type ResponseError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("encryption service responded %d: %s", e.StatusCode, e.Message)
}

// Unwrap makes the error match ErrServiceResponse via errors.Is.
func (e *ResponseError) Unwrap() error {
	return ErrServiceResponse
}
