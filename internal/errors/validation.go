package errors

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes one field that failed struct-tag validation.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	switch len(ve) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d field errors", len(ve))
	}
}

// Fields returns the failing field names in order.
func (ve ValidationErrors) Fields() []string {
	fields := make([]string, len(ve))
	for i, e := range ve {
		fields[i] = e.Field
	}
	return fields
}

// ToValidationErrors converts go-playground field errors, possibly wrapped,
// into ValidationErrors. Other errors yield nil.
func ToValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: ruleMessage(fe.Tag(), fe.Param()),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

var enumMessages = map[string]string{
	"question_type":     "must be one of multiple_choice, true_false, short_answer, essay, matching, ordering, fill_blank, hotspot, drag_drop",
	"difficulty_level":  "must be easy, medium or hard",
	"criterion_type":    "must be DESEMPENO, CONOCIMIENTO, PRODUCTO or ACTITUD",
	"scoring_method":    "must be standard, weighted, competency or adaptive",
	"assessment_status": "must be draft, published or archived",
}

func ruleMessage(tag, param string) string {
	if msg, ok := enumMessages[tag]; ok {
		return msg
	}
	switch tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", param)
	default:
		return fmt.Sprintf("validation failed for rule '%s'", tag)
	}
}
