package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotVerified          = errors.New("email not verified")
	ErrAlreadyVerified      = errors.New("email already verified")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired verification code")
	ErrEmailNotConfigured   = errors.New("email delivery is not configured")
	ErrTooManyRequests      = errors.New("too many requests")
)
