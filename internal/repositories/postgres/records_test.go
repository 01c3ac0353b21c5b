package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

func TestSessionRecordRoundTrip(t *testing.T) {
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	snap := &repositories.SessionSnapshot{
		Session: models.AssessmentSession{
			ID:            "s1",
			AssessmentID:  "a1",
			UserID:        "u1",
			Status:        models.SessionInProgress,
			QuestionOrder: []string{"q1", "q2"},
			StartedAt:     started,
		},
		Responses: map[string]models.QuestionResponse{
			"q1": {QuestionID: "q1", Answer: "agua y jabón", TimeSpent: 12},
		},
	}
	responses, err := json.Marshal(snap.Responses)
	require.NoError(t, err)

	rec := newSessionRecord(snap, responses)
	assert.Equal(t, "a1", rec.AssessmentID)
	assert.Equal(t, "in_progress", rec.Status)
	assert.Equal(t, started, rec.StartedAt)

	restored, err := rec.snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.Session.QuestionOrder, restored.Session.QuestionOrder)
	assert.Equal(t, "agua y jabón", restored.Responses["q1"].Answer)
}

func TestResultRecordIndexesProvisionalScores(t *testing.T) {
	session := &models.AssessmentSession{ID: "s1", AssessmentID: "a1", UserID: "u1"}
	score := &models.ScoreResult{Percentage: 60, FinalScore: 63, GradeLetter: "D", RequiresManualReview: true}

	rec := newResultRecord(session, score)
	assert.True(t, rec.Provisional)
	assert.Equal(t, "D", rec.GradeLetter)
	assert.Equal(t, 63.0, rec.Result.Data().FinalScore)
}

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, translateError(gorm.ErrRecordNotFound), repositories.ErrNotFound)
	assert.Nil(t, translateError(nil))
}
