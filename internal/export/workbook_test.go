package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

func TestScoreWorkbook(t *testing.T) {
	credit := 0.5
	s := &models.AssessmentSession{ID: "s1", AssessmentID: "a1", UserID: "u1", Status: models.SessionCompleted}
	score := &models.ScoreResult{
		TotalPoints:    15,
		MaxPoints:      20,
		Percentage:     75,
		FinalScore:     78,
		TimeBonus:      3,
		GradeLetter:    "C",
		Passed:         true,
		CorrectAnswers: 1,
		TotalQuestions: 2,
		ScoringMethod:  models.ScoringCompetency,
		QuestionResults: []models.QuestionResult{
			{QuestionID: "q1", QuestionType: "multiple_choice", IsCorrect: true, Points: 10, MaxPoints: 10},
			{QuestionID: "q2", QuestionType: "ordering", Points: 5, MaxPoints: 10, PartialCredit: &credit},
		},
		CompetencyResults: map[string]models.CompetencyResult{
			"EC0301": {Competency: "EC0301", ECCode: "EC0301", Percentage: 50, QuestionCount: 1},
			"EC0217": {Competency: "EC0217", ECCode: "EC0217", Percentage: 100, Passed: true, QuestionCount: 1, CorrectCount: 1},
		},
		ManualReviewQuestions: []string{},
	}

	data, err := ScoreWorkbook(s, score)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, QuestionsSheet, CompetenciesSheet}, f.GetSheetList())

	grade, err := f.GetCellValue(SummarySheet, "B11")
	require.NoError(t, err)
	assert.Equal(t, "C", grade)

	rows, err := f.GetRows(QuestionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Question ID", rows[0][0])
	assert.Equal(t, "q2", rows[2][0])
	assert.Equal(t, "0.5", rows[2][5])

	rows, err = f.GetRows(CompetenciesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "EC0217", rows[1][0])
	assert.Equal(t, "EC0301", rows[2][0])
}

func TestScoreWorkbookWithoutCompetencies(t *testing.T) {
	data, err := ScoreWorkbook(&models.AssessmentSession{ID: "s1"}, &models.ScoreResult{ScoringMethod: models.ScoringStandard})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SummarySheet, QuestionsSheet}, f.GetSheetList())
}
