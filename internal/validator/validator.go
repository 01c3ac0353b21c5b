package validator

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation of policy objects with the
// structural question checks.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()

	// Register all custom validators once
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate validates struct tags and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.ValidateStruct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// ValidateAssessment checks assessment policy and then every question.
func (v *Validator) ValidateAssessment(a *models.Assessment) error {
	if a == nil {
		return fmt.Errorf("%w: assessment is nil", apperrors.ErrInvalidAssessment)
	}
	if err := v.Validate(a); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidAssessment, err)
	}
	return v.questionValidator.ValidateBatch(a.Questions)
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", oneOf(models.QuestionTypes...))
	validate.RegisterValidation("difficulty_level", oneOf(
		models.DifficultyEasy,
		models.DifficultyMedium,
		models.DifficultyHard,
	))
	validate.RegisterValidation("criterion_type", oneOf(
		models.CriterionPerformance,
		models.CriterionKnowledge,
		models.CriterionProduct,
		models.CriterionAttitude,
	))
	validate.RegisterValidation("scoring_method", oneOf(
		models.ScoringStandard,
		models.ScoringWeighted,
		models.ScoringCompetency,
		models.ScoringAdaptive,
	))
	validate.RegisterValidation("assessment_status", oneOf(
		models.StatusDraft,
		models.StatusPublished,
		models.StatusArchived,
	))

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func oneOf[T ~string](valid ...T) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, v := range valid {
			if string(v) == value {
				return true
			}
		}
		return false
	}
}
