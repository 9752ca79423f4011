package session

import "errors"

var (
	ErrNoSession          = errors.New("no active session")
	ErrSuspended          = errors.New("account is suspended")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation failed")
)
