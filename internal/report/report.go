// Package report derives a qualitative performance summary from a scored session.
package report

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// Classification cut-offs, in percent.
const (
	CompetencyStrength = 80.0
	CompetencyWeakness = 60.0
	TypeStrength       = 80.0
	TypeWeakness       = 50.0
	ReviewBelow        = 70.0
)

const (
	reviewMaterialNote = "Review the course material before your next attempt"
	manualReviewNote   = "Some answers are awaiting manual review; the final score may change"
)

// GeneratePerformanceReport classifies strengths and weaknesses by competency
// when the score carries competency results, otherwise by question type.
// Question results must be in the same order as a.Questions.
func GeneratePerformanceReport(score *models.ScoreResult, a *models.Assessment) (*models.PerformanceReport, error) {
	if score == nil || a == nil {
		return nil, fmt.Errorf("%w: score and assessment are required", apperrors.ErrInvalidAssessment)
	}

	r := &models.PerformanceReport{
		AssessmentID:        a.ID,
		Percentage:          score.Percentage,
		FinalScore:          score.FinalScore,
		GradeLetter:         score.GradeLetter,
		Passed:              score.Passed,
		Strengths:           []string{},
		Weaknesses:          []string{},
		Recommendations:     []string{},
		ManualReviewPending: score.RequiresManualReview,
	}

	if len(score.CompetencyResults) > 0 {
		classifyCompetencies(r, score.CompetencyResults)
	} else {
		accuracy, err := typeAccuracy(score, a)
		if err != nil {
			return nil, err
		}
		for _, ta := range accuracy {
			label := typeLabel(ta.questionType)
			switch {
			case ta.percentage >= TypeStrength:
				r.Strengths = append(r.Strengths, fmt.Sprintf("%s (%.0f%% correct)", label, ta.percentage))
			case ta.percentage < TypeWeakness:
				r.Weaknesses = append(r.Weaknesses, fmt.Sprintf("%s (%.0f%% correct)", label, ta.percentage))
				r.Recommendations = append(r.Recommendations, fmt.Sprintf("Practice more %s", label))
			}
		}
	}

	if score.Percentage < ReviewBelow {
		r.Recommendations = append(r.Recommendations, reviewMaterialNote)
	}
	if score.RequiresManualReview {
		r.Recommendations = append(r.Recommendations, manualReviewNote)
	}
	return r, nil
}

func classifyCompetencies(r *models.PerformanceReport, results map[string]models.CompetencyResult) {
	labels := make([]string, 0, len(results))
	for label := range results {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	for _, label := range labels {
		c := results[label]
		switch {
		case c.Percentage >= CompetencyStrength:
			r.Strengths = append(r.Strengths, fmt.Sprintf("%s (%.0f%%)", label, c.Percentage))
		case c.Percentage < CompetencyWeakness:
			r.Weaknesses = append(r.Weaknesses, fmt.Sprintf("%s (%.0f%%)", label, c.Percentage))
			r.Recommendations = append(r.Recommendations, fmt.Sprintf("Reinforce competency %s", label))
		}
	}
}

type typeStat struct {
	questionType models.QuestionType
	total        int
	correct      int
	percentage   float64
}

// typeAccuracy pairs a.Questions[i] with score.QuestionResults[i]. A mismatch
// in length or question id means the results were reordered and is an error.
func typeAccuracy(score *models.ScoreResult, a *models.Assessment) ([]typeStat, error) {
	if len(score.QuestionResults) != len(a.Questions) {
		return nil, fmt.Errorf("%w: %d question results for %d questions",
			apperrors.ErrInvalidAssessment, len(score.QuestionResults), len(a.Questions))
	}

	var stats []typeStat
	index := make(map[models.QuestionType]int)
	for i, q := range a.Questions {
		res := score.QuestionResults[i]
		if res.QuestionID != q.ID {
			return nil, fmt.Errorf("%w: result %d is for %s, expected %s",
				apperrors.ErrInvalidAssessment, i, res.QuestionID, q.ID)
		}
		pos, ok := index[q.Type]
		if !ok {
			pos = len(stats)
			index[q.Type] = pos
			stats = append(stats, typeStat{questionType: q.Type})
		}
		stats[pos].total++
		if res.IsCorrect {
			stats[pos].correct++
		}
	}
	for i := range stats {
		stats[i].percentage = float64(stats[i].correct) / float64(stats[i].total) * 100
	}
	return stats, nil
}

func typeLabel(t models.QuestionType) string {
	return strings.ReplaceAll(string(t), "_", " ") + " questions"
}
