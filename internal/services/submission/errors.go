package submission

import (
	"errors"

	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
)

var (
	ErrEmptyContent = errors.New("content is empty")
	ErrNoSession    = sessionsvc.ErrNoSession
)

// ValidationError is returned before any network call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure that carried no moderation decision: network
// errors, 5xx replies and 4xx replies without a moderation body.
type TransportError struct {
	Op        string
	Reason    string
	Suspended bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Reason
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
