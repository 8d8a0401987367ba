package domain

import "errors"

var (
	// ErrValidationFailed marks input that is missing a required field or
	// carries a value outside its allowed set. Never retried.
	ErrValidationFailed = errors.New("validation failed")

	// ErrSubmissionFailed marks a sink failure that may succeed on retry.
	ErrSubmissionFailed = errors.New("submission failed")

	// ErrTimeout marks a sink attempt that exceeded its deadline.
	ErrTimeout = errors.New("submission timed out")

	ErrLocationUnavailable = errors.New("device location unavailable")
	ErrMediaRejected       = errors.New("media rejected")
	ErrWizardLocked        = errors.New("wizard is locked")
	ErrUnknownField        = errors.New("unknown field")
	ErrNoSession           = errors.New("no active session")
	ErrForbidden           = errors.New("forbidden for role")
)
