package apperrors

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrInvalidInput       = errors.New("invalid input")
)
