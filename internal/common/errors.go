// Package common defines shared constants and sentinel errors used across
// layers of the wishlist server. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorValidation = errors.New("validation error")

	// Auth errors surfaced to callers. Each one hides the underlying cause.
	ErrEmailConflict         = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// Feature toggles.
	ErrorStorageNotConfigured = errors.New("object storage is not configured")
)
