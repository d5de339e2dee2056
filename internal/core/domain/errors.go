package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuotaExceeded indicates the organization hit its monthly check limit
	ErrQuotaExceeded = errors.New("monthly check quota exceeded")

	// ErrOrganizationInactive indicates the owning organization is deactivated
	ErrOrganizationInactive = errors.New("organization inactive")

	// ErrCheckTerminal indicates an attempt to re-process a completed or failed check
	ErrCheckTerminal = errors.New("check already in terminal state")

	// ErrDimensionMismatch indicates a vector does not match the expected dimension
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidProvider indicates an unknown embedding provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates an external service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrNoTranscript indicates a video has no usable English transcript
	ErrNoTranscript = errors.New("no transcript available")
)
