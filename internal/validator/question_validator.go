package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// QuestionValidator performs the structural checks every question must pass
// before it may be evaluated. It never mutates its input.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

var defaultQuestionValidator = NewQuestionValidator()

// ValidateQuestion reports whether q is structurally valid.
func ValidateQuestion(q *models.Question) bool {
	return defaultQuestionValidator.ValidateQuestion(q)
}

// ValidateQuestion reports whether q is structurally valid.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) bool {
	return v.Validate(q) == nil
}

// Validate returns a *QuestionError describing the first structural problem, or nil.
func (v *QuestionValidator) Validate(q *models.Question) error {
	if q == nil {
		return apperrors.NewQuestionError("", "", "question is nil")
	}
	if strings.TrimSpace(q.ID) == "" {
		return apperrors.NewQuestionError(q.ID, "id", "is required")
	}
	if q.Type == "" {
		return apperrors.NewQuestionError(q.ID, "type", "is required")
	}
	if strings.TrimSpace(q.Text) == "" {
		return apperrors.NewQuestionError(q.ID, "question", "text is required")
	}
	if q.Points < 0 {
		return apperrors.NewQuestionError(q.ID, "points", "must be positive")
	}
	if q.Content == nil {
		return apperrors.NewQuestionError(q.ID, "type", fmt.Sprintf("%q is not supported", q.Type))
	}
	if q.Content.ContentType() != q.Type {
		return apperrors.NewQuestionError(q.ID, "type",
			fmt.Sprintf("%q does not match %s content", q.Type, q.Content.ContentType()))
	}

	switch c := q.Content.(type) {
	case *models.MultipleChoiceContent:
		return v.validateMultipleChoice(q.ID, c)
	case *models.TrueFalseContent:
		return v.validateTrueFalse(q.ID, c)
	case *models.ShortAnswerContent:
		return v.validateShortAnswer(q.ID, c)
	case *models.EssayContent:
		return v.validateEssay(q.ID, c)
	case *models.MatchingContent:
		return v.validateMatching(q.ID, c)
	case *models.OrderingContent:
		return v.validateOrdering(q.ID, c)
	case *models.FillBlankContent:
		return v.validateFillBlank(q.ID, c)
	case *models.HotspotContent, *models.DragDropContent:
		// Structure is owned by the authoring UI.
		return nil
	default:
		return apperrors.NewQuestionError(q.ID, "type", fmt.Sprintf("unsupported content %T", c))
	}
}

// ValidateBatch validates every question and rejects duplicate ids.
func (v *QuestionValidator) ValidateBatch(questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: question batch cannot be empty", apperrors.ErrInvalidAssessment)
	}

	seen := make(map[string]bool, len(questions))
	for i := range questions {
		if err := v.Validate(&questions[i]); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
		if seen[questions[i].ID] {
			return fmt.Errorf("validation failed for question %d: %w",
				i+1, apperrors.NewQuestionError(questions[i].ID, "id", "is duplicated"))
		}
		seen[questions[i].ID] = true
	}
	return nil
}

func (v *QuestionValidator) validateMultipleChoice(id string, c *models.MultipleChoiceContent) error {
	if len(c.Options) < 2 {
		return apperrors.NewQuestionError(id, "options", "must have at least 2 entries")
	}
	inRange := func(i int) bool { return i >= 0 && i < len(c.Options) }

	if c.MultiSelect {
		if len(c.CorrectMultiple) == 0 {
			return apperrors.NewQuestionError(id, "correct_multiple", "must not be empty for multi-select")
		}
		for _, idx := range c.CorrectMultiple {
			if !inRange(idx) {
				return apperrors.NewQuestionError(id, "correct_multiple", fmt.Sprintf("index %d is out of range", idx))
			}
		}
		if c.Correct != nil && !inRange(*c.Correct) {
			return apperrors.NewQuestionError(id, "correct", fmt.Sprintf("index %d is out of range", *c.Correct))
		}
		return nil
	}

	if c.Correct == nil {
		return apperrors.NewQuestionError(id, "correct", "is required")
	}
	if !inRange(*c.Correct) {
		return apperrors.NewQuestionError(id, "correct", fmt.Sprintf("index %d is out of range", *c.Correct))
	}
	return nil
}

func (v *QuestionValidator) validateTrueFalse(id string, c *models.TrueFalseContent) error {
	if c.Correct == nil {
		return apperrors.NewQuestionError(id, "correct", "must be a boolean")
	}
	return nil
}

func (v *QuestionValidator) validateShortAnswer(id string, c *models.ShortAnswerContent) error {
	if strings.TrimSpace(c.SampleAnswer) == "" {
		return apperrors.NewQuestionError(id, "sample_answer", "is required")
	}
	return nil
}

func (v *QuestionValidator) validateEssay(id string, c *models.EssayContent) error {
	if len(c.Rubric) == 0 {
		return apperrors.NewQuestionError(id, "rubric", "must have at least 1 criterion")
	}
	for i, criterion := range c.Rubric {
		if criterion.MaxPoints <= 0 {
			return apperrors.NewQuestionError(id, fmt.Sprintf("rubric[%d].max_points", i), "must be positive")
		}
	}
	if c.MinWords < 0 || c.MaxWords < 0 {
		return apperrors.NewQuestionError(id, "min_words", "word limits cannot be negative")
	}
	if c.MaxWords > 0 && c.MinWords > c.MaxWords {
		return apperrors.NewQuestionError(id, "min_words", "cannot be greater than max_words")
	}
	return nil
}

func (v *QuestionValidator) validateMatching(id string, c *models.MatchingContent) error {
	if len(c.Pairs) < 2 {
		return apperrors.NewQuestionError(id, "pairs", "must have at least 2 entries")
	}
	for i, pair := range c.Pairs {
		if strings.TrimSpace(pair.Left) == "" || strings.TrimSpace(pair.Right) == "" {
			return apperrors.NewQuestionError(id, fmt.Sprintf("pairs[%d]", i), "must have both left and right")
		}
	}
	return nil
}

func (v *QuestionValidator) validateOrdering(id string, c *models.OrderingContent) error {
	if len(c.Items) < 2 {
		return apperrors.NewQuestionError(id, "items", "must have at least 2 entries")
	}
	if len(c.CorrectOrder) != len(c.Items) {
		return apperrors.NewQuestionError(id, "correct_order", "must include all items exactly once")
	}

	seen := make([]bool, len(c.Items))
	for _, idx := range c.CorrectOrder {
		if idx < 0 || idx >= len(c.Items) {
			return apperrors.NewQuestionError(id, "correct_order", fmt.Sprintf("index %d is out of range", idx))
		}
		if seen[idx] {
			return apperrors.NewQuestionError(id, "correct_order", fmt.Sprintf("index %d is duplicated", idx))
		}
		seen[idx] = true
	}
	return nil
}

func (v *QuestionValidator) validateFillBlank(id string, c *models.FillBlankContent) error {
	if strings.TrimSpace(c.Template) == "" {
		return apperrors.NewQuestionError(id, "template", "is required")
	}
	if len(c.Blanks) == 0 {
		return apperrors.NewQuestionError(id, "blanks", "must have at least 1 blank")
	}
	for i, blank := range c.Blanks {
		if len(blank.AcceptedAnswers) == 0 {
			return apperrors.NewQuestionError(id, fmt.Sprintf("blanks[%d].accepted_answers", i), "must not be empty")
		}
	}
	return nil
}
