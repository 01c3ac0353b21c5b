package services

import (
	"errors"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
)

// ===== SERVICE ERRORS =====

var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden - session belongs to another user")

	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrAssessmentNotPublished = errors.New("assessment is not published")
	ErrResultNotFound         = errors.New("score result not found")
	ErrSessionNotCompleted    = errors.New("session has not been completed")
	ErrAttemptLimitExceeded   = errors.New("maximum attempts exceeded")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return apperrors.IsNotFound(err) ||
		errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	return apperrors.IsValidation(err)
}

// IsConflict checks if error represents an operation the session state does not allow
func IsConflict(err error) bool {
	return apperrors.IsStateError(err) ||
		errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrAssessmentNotPublished) ||
		errors.Is(err, ErrSessionNotCompleted)
}
