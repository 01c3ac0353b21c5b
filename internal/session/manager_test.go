package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func testAssessment(n int) *models.Assessment {
	a := &models.Assessment{ID: "assessment-1", Title: "Workshop safety"}
	for i := range n {
		a.Questions = append(a.Questions, models.Question{
			ID:     fmt.Sprintf("q%d", i+1),
			Type:   models.MultipleChoice,
			Text:   fmt.Sprintf("Question %d", i+1),
			Points: 10,
			Content: &models.MultipleChoiceContent{
				Options: []string{"a", "b", "c", "d"},
				Correct: intPtr(2),
			},
		})
	}
	return a
}

func newTestManager(clock *fakeClock, opts ...Option) *Manager {
	ids := 0
	base := []Option{
		WithClock(clock.Now),
		WithRandSource(rand.NewPCG(1, 2)),
		WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("session-%d", ids)
		}),
	}
	return NewManager(append(base, opts...)...)
}

func TestStartAssessment(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	a := testAssessment(3)
	a.TimeLimit = 600

	s, err := m.StartAssessment(ctx, a, "user-1", models.StartAssessmentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "session-1", s.ID)
	assert.Equal(t, models.SessionInProgress, s.Status)
	assert.Equal(t, 0, s.CurrentQuestionIndex)
	assert.Equal(t, []string{"q1", "q2", "q3"}, s.QuestionOrder)
	assert.Equal(t, clock.now, s.StartedAt)
	require.NotNil(t, s.TimeRemaining)
	assert.Equal(t, 600, *s.TimeRemaining)

	stored, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, stored)
}

func TestStartAssessmentRejectsInvalidQuestion(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{now: time.Now()})
	a := testAssessment(3)
	a.Questions[1].Content.(*models.MultipleChoiceContent).Correct = intPtr(7)

	s, err := m.StartAssessment(ctx, a, "user-1", models.StartAssessmentOptions{})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuestion)

	_, err = m.GetSession(ctx, "session-1")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestStartAssessmentShuffle(t *testing.T) {
	ctx := context.Background()
	a := testAssessment(8)

	first, err := newTestManager(&fakeClock{}).StartAssessment(ctx, a, "u", models.StartAssessmentOptions{ShuffleQuestions: boolPtr(true)})
	require.NoError(t, err)
	second, err := newTestManager(&fakeClock{}).StartAssessment(ctx, a, "u", models.StartAssessmentOptions{ShuffleQuestions: boolPtr(true)})
	require.NoError(t, err)

	assert.Equal(t, first.QuestionOrder, second.QuestionOrder)
	assert.ElementsMatch(t, []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"}, first.QuestionOrder)

	// an explicit false wins over the assessment flag
	a.ShuffleQuestions = true
	s, err := newTestManager(&fakeClock{}).StartAssessment(ctx, a, "u", models.StartAssessmentOptions{ShuffleQuestions: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7", "q8"}, s.QuestionOrder)
}

func TestGetCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	a := testAssessment(2)

	q, err := m.GetCurrentQuestion(ctx, "missing", a)
	require.NoError(t, err)
	assert.Nil(t, q)

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)

	q, err = m.GetCurrentQuestion(ctx, s.ID, a)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "q1", q.ID)

	_, err = m.PauseSession(ctx, s.ID)
	require.NoError(t, err)
	q, err = m.GetCurrentQuestion(ctx, s.ID, a)
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestSubmitAnswer(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	a := testAssessment(2)

	_, err := m.SubmitAnswer(ctx, "missing", a, "q1", 2, 5)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)

	_, err = m.SubmitAnswer(ctx, s.ID, a, "q9", 2, 5)
	assert.ErrorIs(t, err, apperrors.ErrUnknownQuestion)

	res, err := m.SubmitAnswer(ctx, s.ID, a, "q1", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, SubmitResult{NextIndex: 1, Completed: false}, res)

	progress, err := m.GetProgress(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 50.0, progress)

	// resubmitting replaces the earlier response
	clock.Advance(10 * time.Second)
	res, err = m.SubmitAnswer(ctx, s.ID, a, "q1", 2, 7)
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, 2, res.NextIndex)

	responses, err := m.GetResponses(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, 2, responses["q1"].Answer)
	assert.Equal(t, 7, responses["q1"].TimeSpent)

	stored, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, clock.now, *stored.CompletedAt)

	_, err = m.SubmitAnswer(ctx, s.ID, a, "q2", 2, 1)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)
}

func TestSubmitAnswerRejectsMalformedAnswer(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	a := testAssessment(2)

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	first := s.QuestionOrder[0]

	_, err = m.SubmitAnswer(ctx, s.ID, a, first, "b", 5)
	require.ErrorIs(t, err, apperrors.ErrMalformedAnswer)
	assert.True(t, apperrors.IsValidation(err))

	stored, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, stored.Status)
	assert.Zero(t, stored.CurrentQuestionIndex)

	responses, err := m.GetResponses(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, responses)

	// the learner can still answer properly and the attempt scores
	for _, id := range s.QuestionOrder {
		_, err = m.SubmitAnswer(ctx, s.ID, a, id, float64(2), 5)
		require.NoError(t, err)
	}
	score, err := m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, score.Percentage)
}

func TestSubmitAnswerRejectsOtherAssessment(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	s, err := m.StartAssessment(ctx, testAssessment(1), "u", models.StartAssessmentOptions{})
	require.NoError(t, err)

	other := testAssessment(1)
	other.ID = "assessment-2"
	_, err = m.SubmitAnswer(ctx, s.ID, other, "q1", 2, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssessment)

	_, err = m.SubmitAnswer(ctx, s.ID, nil, "q1", 2, 1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssessment)
}

func TestCompleteAssessmentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	a := testAssessment(2)
	a.TimeLimit = 100

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	_, err = m.SubmitAnswer(ctx, s.ID, a, "q1", 2, 20)
	require.NoError(t, err)

	clock.Advance(50 * time.Second)
	first, err := m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, first.Percentage)
	assert.Equal(t, 3.0, first.TimeBonus)
	assert.Equal(t, 53.0, first.FinalScore)
	assert.False(t, first.Passed)

	clock.Advance(time.Hour)
	second, err := m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompleteAssessmentUsesEngineMinimumPassingScore(t *testing.T) {
	ctx := context.Background()
	cfg := models.DefaultEngineConfig()
	cfg.MinPassingScore = 50
	m := newTestManager(&fakeClock{}, WithConfig(cfg))
	a := testAssessment(2)

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	_, err = m.SubmitAnswer(ctx, s.ID, a, "q1", 2, 1)
	require.NoError(t, err)

	res, err := m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.PassingScore)
	assert.True(t, res.Passed)
}

func TestCompleteAssessmentPassingScoreZeroMeansUnset(t *testing.T) {
	ctx := context.Background()
	a := testAssessment(1)
	a.PassingScore = 0

	m := newTestManager(&fakeClock{}, WithConfig(models.AssessmentEngineConfig{}))
	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	res, err := m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPassingScore, res.PassingScore)
	assert.False(t, res.Passed)

	// a zero pass mark has to be asked for explicitly
	zero := 0.0
	other, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	res, err = m.CompleteAssessment(ctx, other.ID, a, models.ScoringOptions{PassingScore: &zero})
	require.NoError(t, err)
	assert.Zero(t, res.PassingScore)
	assert.True(t, res.Passed)
}

func TestCompleteAssessmentRejectsOtherAssessment(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	s, err := m.StartAssessment(ctx, testAssessment(1), "u", models.StartAssessmentOptions{})
	require.NoError(t, err)

	other := testAssessment(1)
	other.ID = "assessment-2"
	_, err = m.CompleteAssessment(ctx, s.ID, other, models.ScoringOptions{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssessment)
}

func TestPauseAndResume(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	m := newTestManager(clock)
	a := testAssessment(2)
	a.TimeLimit = 300

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)

	changed, err := m.ResumeSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, changed, "resuming an in-progress session is a no-op")

	clock.Advance(60 * time.Second)
	changed, err = m.PauseSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	paused, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionPaused, paused.Status)
	require.NotNil(t, paused.PausedAt)
	assert.Equal(t, 240, *paused.TimeRemaining)

	changed, err = m.PauseSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = m.SubmitAnswer(ctx, s.ID, a, "q1", 2, 1)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)

	clock.Advance(10 * time.Minute)
	changed, err = m.ResumeSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	clock.Advance(30 * time.Second)
	resumed, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionInProgress, resumed.Status)
	assert.Nil(t, resumed.PausedAt)
	assert.Equal(t, 90, resumed.ElapsedSeconds(clock.now))

	_, err = m.PauseSession(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestTerminalTransitions(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	a := testAssessment(1)

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	changed, err := m.MarkAbandoned(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = m.MarkExpired(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotActive)

	expired, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	_, err = m.MarkExpired(ctx, expired.ID)
	require.NoError(t, err)
	res, err := m.CompleteAssessment(ctx, expired.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.Percentage)

	stored, err := m.GetSession(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionExpired, stored.Status)
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	a := testAssessment(1)

	s, err := m.StartAssessment(ctx, a, "u", models.StartAssessmentOptions{})
	require.NoError(t, err)
	_, err = m.SubmitAnswer(ctx, s.ID, a, "q1", 2, 4)
	require.NoError(t, err)
	done, err := m.GetSession(ctx, s.ID)
	require.NoError(t, err)
	responses, err := m.GetResponses(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, m.Forget(ctx, s.ID))
	_, err = m.GetSession(ctx, s.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	gone, err := m.GetResponses(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, gone)

	// forgetting twice is fine, and a restored copy scores as before
	require.NoError(t, m.Forget(ctx, s.ID))
	require.NoError(t, m.Restore(ctx, done, responses))
	score, err := m.CompleteAssessment(ctx, s.ID, a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, score.Percentage)
}

func TestGetProgressUnknownSession(t *testing.T) {
	progress, err := newTestManager(&fakeClock{}).GetProgress(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, progress)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(&fakeClock{})
	a := testAssessment(2)

	s := &models.AssessmentSession{
		ID:                   "persisted",
		AssessmentID:         a.ID,
		Status:               models.SessionInProgress,
		QuestionOrder:        []string{"q2", "q1"},
		CurrentQuestionIndex: 1,
	}
	responses := map[string]models.QuestionResponse{"q2": {QuestionID: "q2", Answer: float64(2)}}
	require.NoError(t, m.Restore(ctx, s, responses))

	q, err := m.GetCurrentQuestion(ctx, "persisted", a)
	require.NoError(t, err)
	require.NotNil(t, q)
	assert.Equal(t, "q1", q.ID)

	res, err := m.SubmitAnswer(ctx, "persisted", a, "q1", 2, 3)
	require.NoError(t, err)
	assert.True(t, res.Completed)

	score, err := m.CompleteAssessment(ctx, "persisted", a, models.ScoringOptions{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, score.Percentage)
}
