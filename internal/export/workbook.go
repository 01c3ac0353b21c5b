// Package export renders scored sessions as Excel workbooks.
package export

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

const (
	SummarySheet      = "Summary"
	QuestionsSheet    = "Questions"
	CompetenciesSheet = "Competencies"

	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	questionHeaders   = []any{"Question ID", "Type", "Correct", "Points", "Max Points", "Partial Credit", "Manual Review", "Feedback"}
	competencyHeaders = []any{"Competency", "EC Code", "Criterion Type", "Points", "Max Points", "Percentage", "Passed", "Questions", "Correct"}
)

// ScoreWorkbook writes a Summary sheet, one row per question result and, for
// competency scoring, one row per competency.
func ScoreWorkbook(s *models.AssessmentSession, score *models.ScoreResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	summary := [][]any{
		{"Session", s.ID},
		{"Assessment", s.AssessmentID},
		{"User", s.UserID},
		{"Status", string(s.Status)},
		{"Scoring Method", string(score.ScoringMethod)},
		{"Total Points", score.TotalPoints},
		{"Max Points", score.MaxPoints},
		{"Percentage", score.Percentage},
		{"Time Bonus", score.TimeBonus},
		{"Final Score", score.FinalScore},
		{"Grade", score.GradeLetter},
		{"Passing Score", score.PassingScore},
		{"Passed", score.Passed},
		{"Correct Answers", fmt.Sprintf("%d / %d", score.CorrectAnswers, score.TotalQuestions)},
		{"Manual Review", strings.Join(score.ManualReviewQuestions, ", ")},
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(QuestionsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	rows := [][]any{questionHeaders}
	for _, qr := range score.QuestionResults {
		var partial any
		if qr.PartialCredit != nil {
			partial = *qr.PartialCredit
		}
		rows = append(rows, []any{
			qr.QuestionID, qr.QuestionType, qr.IsCorrect, qr.Points, qr.MaxPoints,
			partial, qr.RequiresManualReview, qr.Feedback,
		})
	}
	if err := writeRows(f, QuestionsSheet, rows); err != nil {
		return nil, err
	}

	if len(score.CompetencyResults) > 0 {
		if _, err := f.NewSheet(CompetenciesSheet); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}
		labels := make([]string, 0, len(score.CompetencyResults))
		for label := range score.CompetencyResults {
			labels = append(labels, label)
		}
		slices.Sort(labels)

		rows := [][]any{competencyHeaders}
		for _, label := range labels {
			c := score.CompetencyResults[label]
			rows = append(rows, []any{
				c.Competency, c.ECCode, string(c.CriterionType), c.Points, c.MaxPoints,
				c.Percentage, c.Passed, c.QuestionCount, c.CorrectCount,
			})
		}
		if err := writeRows(f, CompetenciesSheet, rows); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
