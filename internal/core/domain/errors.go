package domain

import "errors"

// Error taxonomy shared by every layer. Adapters and services wrap these with
// fmt.Errorf("%w: ...") and callers classify with errors.Is.
var (
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage failure")
)
