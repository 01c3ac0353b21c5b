package grading

import (
	"fmt"
	"math"
	"strings"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/validator"
)

// Grading thresholds.
const (
	ShortAnswerCorrectThreshold = 0.6
	ManualReviewLowerBound      = 0.4
	ManualReviewUpperBound      = 0.8
	MatchingCorrectThreshold    = 0.8
	FillBlankCorrectThreshold   = 0.8
	OrderingPartialCreditFactor = 0.5
)

// Evaluator grades single answered questions. It holds no mutable state and is
// safe for concurrent use.
type Evaluator struct {
	questions *validator.QuestionValidator
}

// NewEvaluator creates an evaluator backed by the structural question validator.
func NewEvaluator() *Evaluator {
	return &Evaluator{questions: validator.NewQuestionValidator()}
}

var defaultEvaluator = NewEvaluator()

// EvaluateQuestion grades answer against q with the default evaluator.
func EvaluateQuestion(q *models.Question, answer any) (models.QuestionResult, error) {
	return defaultEvaluator.Evaluate(q, answer)
}

// CheckAnswer reports whether answer has a shape q can be graded against,
// using the default evaluator.
func CheckAnswer(q *models.Question, answer any) error {
	return defaultEvaluator.CheckAnswer(q, answer)
}

// CheckAnswer grades answer against q and discards the result. It returns the
// same errors as Evaluate, so a nil error means completion can score answer.
func (e *Evaluator) CheckAnswer(q *models.Question, answer any) error {
	_, err := e.Evaluate(q, answer)
	return err
}

// Evaluate grades answer against q. It fails when q is structurally invalid or
// when answer has the wrong shape for the question type. A nil answer is
// graded as unanswered.
func (e *Evaluator) Evaluate(q *models.Question, answer any) (models.QuestionResult, error) {
	if err := e.questions.Validate(q); err != nil {
		return models.QuestionResult{}, err
	}
	if answer == nil {
		return Unanswered(q), nil
	}

	switch c := q.Content.(type) {
	case *models.MultipleChoiceContent:
		return evaluateMultipleChoice(q, c, answer)
	case *models.TrueFalseContent:
		return evaluateTrueFalse(q, c, answer)
	case *models.ShortAnswerContent:
		return evaluateShortAnswer(q, c, answer)
	case *models.EssayContent:
		return evaluateEssay(q, c, answer)
	case *models.MatchingContent:
		return evaluateMatching(q, c, answer)
	case *models.OrderingContent:
		return evaluateOrdering(q, c, answer)
	case *models.FillBlankContent:
		return evaluateFillBlank(q, c, answer)
	case *models.HotspotContent, *models.DragDropContent:
		return evaluateManualOnly(q, answer), nil
	default:
		return models.QuestionResult{}, apperrors.NewQuestionError(q.ID, "type", fmt.Sprintf("no evaluator for %T", c))
	}
}

// Unanswered is the result recorded for a question without a response.
func Unanswered(q *models.Question) models.QuestionResult {
	return models.QuestionResult{
		QuestionID:   q.ID,
		QuestionType: string(q.Type),
		MaxPoints:    q.MaxPoints(),
		Feedback:     "No answer submitted",
	}
}

func newResult(q *models.Question, answer any) models.QuestionResult {
	return models.QuestionResult{
		QuestionID:   q.ID,
		QuestionType: string(q.Type),
		MaxPoints:    q.MaxPoints(),
		UserAnswer:   answer,
	}
}

// floorPoints floors with a small tolerance so 0.29*100 does not land on 28.
func floorPoints(x float64) float64 {
	return math.Floor(x + 1e-9)
}

func credit(score float64) *float64 {
	return &score
}

func evaluateMultipleChoice(q *models.Question, c *models.MultipleChoiceContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)

	if c.MultiSelect {
		selected, ok := asIntSlice(answer)
		if !ok {
			single, isInt := asInt(answer)
			if !isInt {
				return res, apperrors.MalformedAnswer(q.ID, "[]int", answer)
			}
			selected = []int{single}
		}
		res.CorrectAnswer = c.CorrectMultiple
		res.IsCorrect = sameIndexSet(selected, c.CorrectMultiple)
	} else {
		selected, ok := asInt(answer)
		if !ok {
			return res, apperrors.MalformedAnswer(q.ID, "int", answer)
		}
		res.CorrectAnswer = *c.Correct
		res.IsCorrect = selected == *c.Correct
	}

	if res.IsCorrect {
		res.Points = res.MaxPoints
	}
	return res, nil
}

func sameIndexSet(a, b []int) bool {
	left := make(map[int]bool, len(a))
	for _, i := range a {
		left[i] = true
	}
	right := make(map[int]bool, len(b))
	for _, i := range b {
		right[i] = true
	}
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if !right[i] {
			return false
		}
	}
	return true
}

func evaluateTrueFalse(q *models.Question, c *models.TrueFalseContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)
	value, ok := answer.(bool)
	if !ok {
		return res, apperrors.MalformedAnswer(q.ID, "bool", answer)
	}
	res.CorrectAnswer = *c.Correct
	res.IsCorrect = value == *c.Correct
	if res.IsCorrect {
		res.Points = res.MaxPoints
	}
	return res, nil
}

func evaluateShortAnswer(q *models.Question, c *models.ShortAnswerContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)
	text, ok := answer.(string)
	if !ok {
		return res, apperrors.MalformedAnswer(q.ID, "string", answer)
	}
	res.CorrectAnswer = c.SampleAnswer

	normalized := normalizeText(text, c.CaseSensitive)
	var similarity float64
	switch {
	case c.ExactMatch:
		if normalized != "" && normalized == normalizeText(c.SampleAnswer, c.CaseSensitive) {
			similarity = 1
		}
	case len(c.Keywords) > 0:
		similarity = keywordSimilarity(normalized, c.Keywords, c.CaseSensitive)
	default:
		similarity = wordOverlap(normalized, normalizeText(c.SampleAnswer, c.CaseSensitive))
	}

	res.PartialCredit = credit(similarity)
	res.IsCorrect = similarity >= ShortAnswerCorrectThreshold
	if res.IsCorrect {
		res.Points = res.MaxPoints
	} else {
		res.Points = floorPoints(res.MaxPoints * similarity)
	}

	// The review band overlaps the correctness threshold on purpose: answers
	// between 0.6 and 0.8 are graded correct and still flagged for a human.
	if similarity >= ManualReviewLowerBound && similarity < ManualReviewUpperBound {
		res.RequiresManualReview = true
		res.Feedback = fmt.Sprintf("Similarity %.0f%%, flagged for manual review", similarity*100)
	}
	return res, nil
}

func evaluateEssay(q *models.Question, c *models.EssayContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)
	text, ok := answer.(string)
	if !ok {
		return res, apperrors.MalformedAnswer(q.ID, "string", answer)
	}

	words := len(strings.Fields(text))
	res.RequiresManualReview = true
	switch {
	case c.MinWords > 0 && words < c.MinWords:
		res.Feedback = fmt.Sprintf("Response has %d words, minimum is %d", words, c.MinWords)
	case c.MaxWords > 0 && words > c.MaxWords:
		res.Feedback = fmt.Sprintf("Response has %d words, maximum is %d", words, c.MaxWords)
	default:
		res.Feedback = "Response requires manual review"
	}
	return res, nil
}

func evaluateMatching(q *models.Question, c *models.MatchingContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)
	pairs, ok := asPairs(answer)
	if !ok {
		return res, apperrors.MalformedAnswer(q.ID, "[]MatchPair or map[string]string", answer)
	}
	res.CorrectAnswer = c.Pairs

	// each left item takes one right item, otherwise pairing every left with
	// every right would match all authored pairs
	lefts := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		if lefts[p.Left] {
			return res, apperrors.MalformedAnswer(q.ID, "pairs with distinct left items", answer)
		}
		lefts[p.Left] = true
	}

	authored := make(map[models.MatchPair]bool, len(c.Pairs))
	for _, p := range c.Pairs {
		authored[p] = true
	}
	matched := 0
	for _, p := range pairs {
		if authored[p] {
			matched++
		}
	}

	score := float64(matched) / float64(len(c.Pairs))
	res.PartialCredit = credit(score)
	res.IsCorrect = score >= MatchingCorrectThreshold
	res.Points = floorPoints(res.MaxPoints * float64(matched) / float64(len(c.Pairs)))
	return res, nil
}

func evaluateOrdering(q *models.Question, c *models.OrderingContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)
	order, ok := asIntSlice(answer)
	if !ok {
		return res, apperrors.MalformedAnswer(q.ID, "[]int", answer)
	}
	res.CorrectAnswer = c.CorrectOrder

	correct := 0
	for i, want := range c.CorrectOrder {
		if i < len(order) && order[i] == want {
			correct++
		}
	}
	total := len(c.CorrectOrder)
	score := float64(correct) / float64(total)
	res.PartialCredit = credit(score)

	if correct == total {
		res.IsCorrect = true
		res.Points = res.MaxPoints
		return res, nil
	}
	// A partially ordered sequence earns half the credit a partial match would.
	res.Points = floorPoints(res.MaxPoints * float64(correct) * OrderingPartialCreditFactor / float64(total))
	return res, nil
}

func evaluateFillBlank(q *models.Question, c *models.FillBlankContent, answer any) (models.QuestionResult, error) {
	res := newResult(q, answer)
	lookup, err := blankAnswers(q.ID, answer)
	if err != nil {
		return res, err
	}

	accepted := make([][]string, len(c.Blanks))
	share := res.MaxPoints / float64(len(c.Blanks))
	correct := 0
	points := 0.0
	for i, blank := range c.Blanks {
		accepted[i] = blank.AcceptedAnswers
		given, ok := lookup(i, blank)
		if !ok {
			continue
		}
		given = normalizeBlank(given, blank.CaseSensitive)
		for _, variant := range blank.AcceptedAnswers {
			if given == normalizeBlank(variant, blank.CaseSensitive) {
				correct++
				points += share
				break
			}
		}
	}
	res.CorrectAnswer = accepted

	score := float64(correct) / float64(len(c.Blanks))
	res.PartialCredit = credit(score)
	res.IsCorrect = score >= FillBlankCorrectThreshold
	res.Points = math.Round(points)
	return res, nil
}

// blankAnswers resolves the submitted value for a blank either by position
// (slice answers) or by blank id, falling back to the position as a key.
func blankAnswers(questionID string, answer any) (func(int, models.Blank) (string, bool), error) {
	if list, ok := asStringSlice(answer); ok {
		return func(i int, _ models.Blank) (string, bool) {
			if i >= len(list) {
				return "", false
			}
			return list[i], true
		}, nil
	}
	if byKey, ok := asStringMap(answer); ok {
		return func(i int, b models.Blank) (string, bool) {
			if b.ID != "" {
				if v, found := byKey[b.ID]; found {
					return v, true
				}
			}
			v, found := byKey[fmt.Sprint(i)]
			return v, found
		}, nil
	}
	if single, ok := answer.(string); ok {
		return func(i int, _ models.Blank) (string, bool) {
			return single, i == 0
		}, nil
	}
	return nil, apperrors.MalformedAnswer(questionID, "[]string or map[string]string", answer)
}

func evaluateManualOnly(q *models.Question, answer any) models.QuestionResult {
	res := newResult(q, answer)
	res.RequiresManualReview = true
	res.Feedback = fmt.Sprintf("%s responses require manual review", q.Type)
	return res
}
