// Package services implements the business logic layer of ApexBoard: the task
// lifecycle, the delegated approval protocol, permission resolution, and user
// provisioning. Services validate input, enforce authorization, orchestrate
// repositories, and publish change events.
package services

import "errors"

// ErrForbidden is returned when the acting user's resolved capabilities do
// not allow the requested operation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned by Authenticate for both unknown emails
// and wrong passwords, deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError marks input rejections. Handlers map it to a 400 response
// with the message shown to the user; all messages are user-safe.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError wraps a user-safe message as a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// AsValidationError reports whether err is a ValidationError and returns it.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
