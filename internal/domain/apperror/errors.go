// Package apperror defines the error taxonomy shared by the service layers.
// Callers wrap these sentinels with fmt.Errorf("...: %w") and the HTTP
// boundary classifies them with errors.Is.
package apperror

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrTransport       = errors.New("mail transport failure")
	ErrAlreadyVerified = errors.New("email already verified")
)
