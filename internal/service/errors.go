package service

import "errors"

// Closed set of errors surfaced to clients. Handlers map these to HTTP
// statuses; anything else is logged server-side and reported as an
// internal error without detail.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSessionInvalid    = errors.New("verification session invalid")
	ErrSessionExpired    = errors.New("verification session expired")
	ErrCodeMismatch      = errors.New("verification code mismatch")
	ErrNotVerified       = errors.New("email not verified")
	ErrTooManyAttempts   = errors.New("too many attempts")
	ErrMailDelivery      = errors.New("mail delivery failed")
	ErrRateLimited       = errors.New("rate limit exceeded")
)
