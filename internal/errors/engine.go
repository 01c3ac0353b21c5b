package errors

import (
	"errors"
	"fmt"
)

var (
	// Structural errors: the input can never be graded as given.
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrInvalidAssessment = errors.New("invalid assessment")
	ErrMalformedAnswer   = errors.New("malformed answer")
	ErrUnknownQuestion   = errors.New("question not part of assessment")

	// State errors: the session cannot accept the operation.
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not in progress")
)

// QuestionError ties a structural failure to the question that caused it.
type QuestionError struct {
	QuestionID string
	Field      string
	Reason     string
}

func (e *QuestionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid question %q: %s", e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("invalid question %q: %s %s", e.QuestionID, e.Field, e.Reason)
}

func (e *QuestionError) Unwrap() error {
	return ErrInvalidQuestion
}

// NewQuestionError builds a QuestionError.
func NewQuestionError(questionID, field, reason string) *QuestionError {
	return &QuestionError{QuestionID: questionID, Field: field, Reason: reason}
}

// MalformedAnswer reports an answer whose shape does not fit its question type.
func MalformedAnswer(questionID string, want string, got any) error {
	return fmt.Errorf("%w for question %q: expected %s, got %T", ErrMalformedAnswer, questionID, want, got)
}

// IsValidation reports whether err is a structural or validation failure.
func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.Is(err, ErrInvalidQuestion) ||
		errors.Is(err, ErrInvalidAssessment) ||
		errors.Is(err, ErrMalformedAnswer) ||
		errors.Is(err, ErrUnknownQuestion) ||
		errors.As(err, &ve)
}

// IsNotFound reports whether err refers to a missing session.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// IsStateError reports whether err is a wrong-state session operation.
func IsStateError(err error) bool {
	return errors.Is(err, ErrSessionNotActive)
}
