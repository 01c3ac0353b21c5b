package scoring

import (
	"math"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

const (
	DefaultCompetencyThreshold = 70.0
	generalCompetency          = "general"
)

// DefaultWeights is the per-type multiplier table used by weighted scoring.
// Types not listed weigh 1.
var DefaultWeights = map[models.QuestionType]float64{
	models.MultipleChoice: 1.0,
	models.TrueFalse:      0.5,
	models.ShortAnswer:    1.5,
	models.Essay:          2.0,
	models.Matching:       1.5,
	models.Ordering:       1.5,
	models.FillInBlank:    1.0,
}

// evaluated pairs an authored question with its grading outcome.
type evaluated struct {
	question *models.Question
	result   models.QuestionResult
}

// strategy aggregates evaluated questions into the totals of a ScoreResult.
type strategy interface {
	aggregate(evals []evaluated, policy policy) *models.ScoreResult
}

// policy is the resolved configuration a strategy runs with.
type policy struct {
	passingScore        float64
	competencyThreshold float64
	weights             []map[models.QuestionType]float64
}

type standardStrategy struct{}

func (standardStrategy) aggregate(evals []evaluated, p policy) *models.ScoreResult {
	res := &models.ScoreResult{TotalQuestions: len(evals)}
	for _, e := range evals {
		res.QuestionResults = append(res.QuestionResults, e.result)
		res.TotalPoints += e.result.Points
		res.MaxPoints += e.result.MaxPoints
		if e.result.IsCorrect {
			res.CorrectAnswers++
		}
	}
	res.Percentage = percentage(res.TotalPoints, res.MaxPoints)
	res.Passed = res.Percentage >= p.passingScore
	return res
}

type weightedStrategy struct{}

func (weightedStrategy) aggregate(evals []evaluated, p policy) *models.ScoreResult {
	weightedEvals := make([]evaluated, len(evals))
	for i, e := range evals {
		w := p.weight(e.question.Type)
		e.result.Points *= w
		e.result.MaxPoints *= w
		weightedEvals[i] = e
	}
	return standardStrategy{}.aggregate(weightedEvals, p)
}

func (p policy) weight(t models.QuestionType) float64 {
	for _, table := range p.weights {
		if w, ok := table[t]; ok && w > 0 {
			return w
		}
	}
	return 1
}

type competencyStrategy struct{}

func (competencyStrategy) aggregate(evals []evaluated, p policy) *models.ScoreResult {
	res := standardStrategy{}.aggregate(evals, p)

	var order []string
	groups := make(map[string]*models.CompetencyResult)
	for _, e := range evals {
		label := competencyLabel(e.question)
		g, ok := groups[label]
		if !ok {
			g = &models.CompetencyResult{
				Competency:    label,
				ECCode:        e.question.ECCode,
				CriterionType: e.question.CriterionType,
			}
			groups[label] = g
			order = append(order, label)
		}
		g.Points += e.result.Points
		g.MaxPoints += e.result.MaxPoints
		g.QuestionCount++
		g.QuestionIDs = append(g.QuestionIDs, e.question.ID)
		if e.result.IsCorrect {
			g.CorrectCount++
		}
	}

	res.CompetencyResults = make(map[string]models.CompetencyResult, len(groups))
	allPassed := true
	sum := 0.0
	for _, label := range order {
		g := groups[label]
		g.Percentage = percentage(g.Points, g.MaxPoints)
		g.Passed = g.Percentage >= p.competencyThreshold
		allPassed = allPassed && g.Passed
		sum += g.Percentage
		res.CompetencyResults[label] = *g
	}

	// Each competency counts once regardless of how many questions it holds.
	if len(order) > 0 {
		res.Percentage = math.Round(sum / float64(len(order)))
	}
	res.Passed = allPassed && res.Percentage >= p.passingScore
	return res
}

func competencyLabel(q *models.Question) string {
	switch {
	case q.ECCode != "":
		return q.ECCode
	case q.CriterionType != "":
		return string(q.CriterionType)
	default:
		return generalCompetency
	}
}

func percentage(points, maxPoints float64) float64 {
	if maxPoints <= 0 {
		return 0
	}
	pct := math.Round(points / maxPoints * 100)
	return math.Max(0, math.Min(100, pct))
}
