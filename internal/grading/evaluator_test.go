package grading

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func multipleChoice(id string, correct int) *models.Question {
	return &models.Question{
		ID:     id,
		Type:   models.MultipleChoice,
		Text:   "Which tool measures voltage?",
		Points: 10,
		Content: &models.MultipleChoiceContent{
			Options: []string{"Hammer", "Wrench", "Multimeter", "Saw"},
			Correct: intPtr(correct),
		},
	}
}

func shortAnswer(id string) *models.Question {
	return &models.Question{
		ID:      id,
		Type:    models.ShortAnswer,
		Text:    "How should hands be washed?",
		Points:  10,
		Content: &models.ShortAnswerContent{SampleAnswer: "agua caliente y jabón"},
	}
}

func TestEvaluateMultipleChoice(t *testing.T) {
	q := multipleChoice("q1", 2)

	tests := []struct {
		name    string
		answer  any
		correct bool
		points  float64
	}{
		{"exact index", 2, true, 10},
		{"decoded json number", float64(2), true, 10},
		{"wrong index", 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EvaluateQuestion(q, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.correct, res.IsCorrect)
			assert.Equal(t, tt.points, res.Points)
			assert.Equal(t, 10.0, res.MaxPoints)
			assert.Equal(t, 2, res.CorrectAnswer)
		})
	}
}

func TestEvaluateMultiSelectComparesSets(t *testing.T) {
	q := &models.Question{
		ID:   "q2",
		Type: models.MultipleChoice,
		Text: "Select the PPE items",
		Content: &models.MultipleChoiceContent{
			Options:         []string{"Gloves", "Sandals", "Goggles"},
			MultiSelect:     true,
			CorrectMultiple: []int{0, 2},
		},
	}

	res, err := EvaluateQuestion(q, []any{float64(2), float64(0)})
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, models.DefaultQuestionPoints, res.Points)

	res, err = EvaluateQuestion(q, []int{0})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.Points)
}

func TestEvaluateTrueFalse(t *testing.T) {
	q := &models.Question{
		ID:      "tf",
		Type:    models.TrueFalse,
		Text:    "Water boils at 100C at sea level",
		Points:  5,
		Content: &models.TrueFalseContent{Correct: boolPtr(true)},
	}

	res, err := EvaluateQuestion(q, true)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 5.0, res.Points)

	_, err = EvaluateQuestion(q, "true")
	assert.ErrorIs(t, err, apperrors.ErrMalformedAnswer)
}

func TestEvaluateShortAnswer(t *testing.T) {
	tests := []struct {
		name    string
		answer  string
		correct bool
		points  float64
		review  bool
	}{
		// two of the three significant sample words, inside the review band
		{"partial overlap flagged", "agua y jabón", true, 10, true},
		{"diacritics ignored", "Agua CALIENTE y jabon", true, 10, false},
		{"below threshold", "solo agua", false, 3, false},
		{"nothing in common", "no se", false, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := EvaluateQuestion(shortAnswer("sa"), tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.correct, res.IsCorrect)
			assert.Equal(t, tt.points, res.Points)
			assert.Equal(t, tt.review, res.RequiresManualReview)
			require.NotNil(t, res.PartialCredit)
		})
	}
}

func TestEvaluateShortAnswerKeywordsAndExact(t *testing.T) {
	keywords := shortAnswer("kw")
	keywords.Content = &models.ShortAnswerContent{
		SampleAnswer: "Use water and soap",
		Keywords:     []string{"agua", "jabón"},
	}
	res, err := EvaluateQuestion(keywords, "con agua tibia y jabon neutro")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 1.0, *res.PartialCredit)

	exact := shortAnswer("ex")
	exact.Content = &models.ShortAnswerContent{SampleAnswer: "Paris", ExactMatch: true}
	res, err = EvaluateQuestion(exact, "  paris. ")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)

	res, err = EvaluateQuestion(exact, "Paris, France")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
}

func TestEvaluateEssayAlwaysNeedsReview(t *testing.T) {
	q := &models.Question{
		ID:     "essay",
		Type:   models.Essay,
		Text:   "Describe the procedure",
		Points: 20,
		Content: &models.EssayContent{
			Rubric:   []models.RubricCriterion{{Criterion: "Clarity", MaxPoints: 20}},
			MinWords: 5,
		},
	}

	res, err := EvaluateQuestion(q, "too short")
	require.NoError(t, err)
	assert.True(t, res.RequiresManualReview)
	assert.Zero(t, res.Points)
	assert.Equal(t, 20.0, res.MaxPoints)
	assert.Contains(t, res.Feedback, "minimum is 5")
}

func TestEvaluateMatching(t *testing.T) {
	q := &models.Question{
		ID:   "match",
		Type: models.Matching,
		Text: "Match each tool with its use",
		Content: &models.MatchingContent{Pairs: []models.MatchPair{
			{Left: "a", Right: "1"},
			{Left: "b", Right: "2"},
			{Left: "c", Right: "3"},
			{Left: "d", Right: "4"},
			{Left: "e", Right: "5"},
		}},
	}

	answer := map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "1"}
	res, err := EvaluateQuestion(q, answer)
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 8.0, res.Points)

	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`[{"left":"a","right":"1"},{"left":"b","right":"3"}]`), &decoded))
	res, err = EvaluateQuestion(q, decoded)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 2.0, res.Points)

	// a left item may appear only once in a list answer
	require.NoError(t, json.Unmarshal([]byte(`[{"left":"a","right":"1"},{"left":"a","right":"1"}]`), &decoded))
	_, err = EvaluateQuestion(q, decoded)
	assert.ErrorIs(t, err, apperrors.ErrMalformedAnswer)
}

func TestEvaluateMatchingRejectsEveryCombination(t *testing.T) {
	pairs := []models.MatchPair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}, {Left: "c", Right: "3"}}
	q := &models.Question{
		ID:      "match",
		Type:    models.Matching,
		Text:    "Match each tool with its use",
		Content: &models.MatchingContent{Pairs: pairs},
	}

	var all []models.MatchPair
	for _, l := range pairs {
		for _, r := range pairs {
			all = append(all, models.MatchPair{Left: l.Left, Right: r.Right})
		}
	}
	_, err := EvaluateQuestion(q, all)
	require.ErrorIs(t, err, apperrors.ErrMalformedAnswer)
	require.ErrorIs(t, CheckAnswer(q, all), apperrors.ErrMalformedAnswer)

	require.NoError(t, CheckAnswer(q, pairs))
	require.NoError(t, CheckAnswer(q, nil))
}

func TestEvaluateOrdering(t *testing.T) {
	q := &models.Question{
		ID:     "order",
		Type:   models.Ordering,
		Text:   "Order the steps",
		Points: 20,
		Content: &models.OrderingContent{
			Items:        []string{"one", "two", "three", "four"},
			CorrectOrder: []int{0, 1, 2, 3},
		},
	}

	res, err := EvaluateQuestion(q, []int{0, 1, 3, 2})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 5.0, res.Points)

	res, err = EvaluateQuestion(q, []int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 20.0, res.Points)
}

func TestEvaluateFillBlank(t *testing.T) {
	q := &models.Question{
		ID:   "blank",
		Type: models.FillInBlank,
		Text: "Complete the sentence",
		Content: &models.FillBlankContent{
			Template: "The ___ is ___ and ___",
			Blanks: []models.Blank{
				{ID: "b1", AcceptedAnswers: []string{"sky"}},
				{ID: "b2", AcceptedAnswers: []string{"blue", "azure"}},
				{ID: "b3", AcceptedAnswers: []string{"wide"}},
			},
		},
	}

	res, err := EvaluateQuestion(q, []string{" Sky ", "AZURE", "narrow"})
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, 7.0, res.Points)

	res, err = EvaluateQuestion(q, map[string]any{"b1": "sky", "b2": "blue", "2": "wide"})
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, 10.0, res.Points)
}

func TestEvaluateManualOnlyTypes(t *testing.T) {
	q := &models.Question{
		ID:      "hs",
		Type:    models.Hotspot,
		Text:    "Click the valve",
		Content: &models.HotspotContent{Image: "valve.png"},
	}
	res, err := EvaluateQuestion(q, map[string]any{"x": 10, "y": 20})
	require.NoError(t, err)
	assert.True(t, res.RequiresManualReview)
	assert.Zero(t, res.Points)
}

func TestEvaluateRejectsInvalidQuestion(t *testing.T) {
	q := multipleChoice("bad", 0)
	q.Content.(*models.MultipleChoiceContent).Options = []string{"only"}

	_, err := EvaluateQuestion(q, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)

	var qerr *apperrors.QuestionError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "bad", qerr.QuestionID)
}

func TestEvaluateMalformedAnswer(t *testing.T) {
	_, err := EvaluateQuestion(multipleChoice("q1", 2), "C")
	assert.ErrorIs(t, err, apperrors.ErrMalformedAnswer)

	_, err = EvaluateQuestion(multipleChoice("q1", 2), 1.5)
	assert.ErrorIs(t, err, apperrors.ErrMalformedAnswer)
}

func TestEvaluateUnanswered(t *testing.T) {
	res, err := EvaluateQuestion(multipleChoice("q1", 2), nil)
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.Points)
	assert.Equal(t, 10.0, res.MaxPoints)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	q := shortAnswer("sa")
	first, err := EvaluateQuestion(q, "agua y jabón")
	require.NoError(t, err)
	for range 5 {
		again, err := EvaluateQuestion(q, "agua y jabón")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
