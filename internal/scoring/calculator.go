package scoring

import (
	"fmt"
	"math"

	apperrors "github.com/SAP-F-2025/assessment-engine/internal/errors"
	"github.com/SAP-F-2025/assessment-engine/internal/grading"
	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// Calculator turns an assessment plus submitted answers into a ScoreResult.
// It is pure and safe for concurrent use.
type Calculator struct {
	evaluator  *grading.Evaluator
	strategies map[models.ScoringMethod]strategy
}

// NewCalculator creates a calculator with the built-in strategies.
func NewCalculator() *Calculator {
	return &Calculator{
		evaluator: grading.NewEvaluator(),
		strategies: map[models.ScoringMethod]strategy{
			models.ScoringStandard:   standardStrategy{},
			models.ScoringWeighted:   weightedStrategy{},
			models.ScoringCompetency: competencyStrategy{},
			// TODO: adaptive scoring has no distinct behavior yet; it stays an
			// alias of standard until item selection is specified.
			models.ScoringAdaptive: standardStrategy{},
		},
	}
}

var defaultCalculator = NewCalculator()

// CalculateScore scores responses (question id -> answer) with the default calculator.
func CalculateScore(a *models.Assessment, responses map[string]any, opts models.ScoringOptions) (*models.ScoreResult, error) {
	return defaultCalculator.Calculate(a, responses, opts)
}

// Method resolves the scoring method: options first, then the assessment, then standard.
func Method(a *models.Assessment, opts models.ScoringOptions) models.ScoringMethod {
	switch {
	case opts.Method != "":
		return opts.Method
	case a.ScoringMethod != "":
		return a.ScoringMethod
	default:
		return models.ScoringStandard
	}
}

// Calculate scores responses against a. Questions without a response score
// zero but still count toward the maximum. Results are ordered like
// a.Questions.
func (c *Calculator) Calculate(a *models.Assessment, responses map[string]any, opts models.ScoringOptions) (*models.ScoreResult, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: assessment is nil", apperrors.ErrInvalidAssessment)
	}

	method := Method(a, opts)
	strat, ok := c.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scoring method %q", apperrors.ErrInvalidAssessment, method)
	}

	evals := make([]evaluated, 0, len(a.Questions))
	for i := range a.Questions {
		q := &a.Questions[i]
		result, err := c.evaluator.Evaluate(q, responses[q.ID])
		if err != nil {
			return nil, err
		}
		evals = append(evals, evaluated{question: q, result: result})
	}

	p := policy{
		passingScore:        a.EffectivePassingScore(),
		competencyThreshold: DefaultCompetencyThreshold,
		weights:             []map[models.QuestionType]float64{opts.Weights, a.Weights, DefaultWeights},
	}
	if opts.PassingScore != nil {
		p.passingScore = *opts.PassingScore
	}
	if opts.CompetencyThreshold > 0 {
		p.competencyThreshold = opts.CompetencyThreshold
	}

	res := strat.aggregate(evals, p)
	res.ScoringMethod = method
	res.PassingScore = p.passingScore
	res.GradeLetter = GradeLetter(res.Percentage)

	res.ManualReviewQuestions = []string{}
	for _, qr := range res.QuestionResults {
		if qr.RequiresManualReview {
			res.ManualReviewQuestions = append(res.ManualReviewQuestions, qr.QuestionID)
		}
	}
	res.RequiresManualReview = len(res.ManualReviewQuestions) > 0

	res.FinalScore = res.Percentage
	if opts.IncludeTimeBonus {
		res.TimeBonus = CalculateTimeBonus(opts.TimeSpent, a.TimeLimit)
		res.FinalScore = math.Min(100, res.Percentage+res.TimeBonus)
	}
	return res, nil
}
