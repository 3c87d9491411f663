// Package common defines shared constants and sentinel errors used across
// dashvault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors. ErrNotFound is a legitimate outcome for reads
	// (document not yet created); ErrConflict means the revision supplied
	// with a write no longer matches the latest one.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("revision conflict")

	// Auth errors. ErrInvalidToken covers every verification failure
	// (bad signature, malformed, expired) so callers cannot leak the reason.
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")

	// Input rejected before any backend call is attempted.
	ErrValidation = errors.New("validation error")
)
