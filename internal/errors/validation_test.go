package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
)

type policy struct {
	Title        string  `validate:"required"`
	PassingScore float64 `validate:"gte=0,lte=100"`
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	errs = append(errs, ValidationError{Field: "field1", Message: "message1"})
	expected := "validation failed: field1 message1"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	errs = append(errs, ValidationError{Field: "field2", Message: "message2"})
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestToValidationErrors(t *testing.T) {
	err := validator.New().Struct(policy{PassingScore: 120})
	errs := ToValidationErrors(fmt.Errorf("%w: %w", ErrInvalidAssessment, err))

	if len(errs) != 2 {
		t.Fatalf("Expected 2 field errors, got %d", len(errs))
	}
	if got := errs.Fields(); got[0] != "Title" || got[1] != "PassingScore" {
		t.Errorf("Unexpected fields %v", got)
	}
	if errs[0].Message != "is required" || errs[0].Rule != "required" {
		t.Errorf("Unexpected first error %+v", errs[0])
	}
	if errs[1].Message != "must be less than or equal to 100" {
		t.Errorf("Unexpected message '%s'", errs[1].Message)
	}
	if !IsValidation(errs) {
		t.Errorf("Expected IsValidation to be true")
	}

	if ToValidationErrors(ErrSessionNotFound) != nil {
		t.Errorf("Expected nil for non-validation errors")
	}
}

func TestQuestionErrorUnwrapsToInvalidQuestion(t *testing.T) {
	err := NewQuestionError("q1", "options", "must have at least 2 entries")

	if !stderrors.Is(err, ErrInvalidQuestion) {
		t.Errorf("Expected error to wrap ErrInvalidQuestion")
	}
	if !IsValidation(err) {
		t.Errorf("Expected IsValidation to be true")
	}

	expected := `invalid question "q1": options must have at least 2 entries`
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestMalformedAnswer(t *testing.T) {
	err := MalformedAnswer("q2", "bool", "yes")

	if !stderrors.Is(err, ErrMalformedAnswer) {
		t.Errorf("Expected error to wrap ErrMalformedAnswer")
	}
	if IsNotFound(err) || IsStateError(err) {
		t.Errorf("Expected malformed answer to be neither not-found nor state error")
	}
}

func TestStateClassifiers(t *testing.T) {
	if !IsNotFound(fmt.Errorf("lookup: %w", ErrSessionNotFound)) {
		t.Errorf("Expected wrapped ErrSessionNotFound to be not found")
	}
	if !IsStateError(ErrSessionNotActive) {
		t.Errorf("Expected ErrSessionNotActive to be a state error")
	}
}
