package models

// QuestionResult is the outcome of evaluating one question. It is never
// persisted by the engine itself.
type QuestionResult struct {
	QuestionID           string   `json:"question_id"`
	QuestionType         string   `json:"question_type,omitempty"`
	IsCorrect            bool     `json:"is_correct"`
	Points               float64  `json:"points"`
	MaxPoints            float64  `json:"max_points"`
	Feedback             string   `json:"feedback,omitempty"`
	CorrectAnswer        any      `json:"correct_answer,omitempty"`
	UserAnswer           any      `json:"user_answer"`
	RequiresManualReview bool     `json:"requires_manual_review,omitempty"`
	PartialCredit        *float64 `json:"partial_credit,omitempty"`
}

// WithoutCorrectAnswer returns a copy safe to show before grading is final.
func (r QuestionResult) WithoutCorrectAnswer() QuestionResult {
	r.CorrectAnswer = nil
	return r
}

// CompetencyResult aggregates the questions sharing one competency label.
type CompetencyResult struct {
	Competency    string        `json:"competency"`
	ECCode        string        `json:"ec_code,omitempty"`
	CriterionType CriterionType `json:"criterion_type,omitempty"`
	Points        float64       `json:"points"`
	MaxPoints     float64       `json:"max_points"`
	Percentage    float64       `json:"percentage"`
	Passed        bool          `json:"passed"`
	QuestionCount int           `json:"question_count"`
	CorrectCount  int           `json:"correct_count"`
	QuestionIDs   []string      `json:"question_ids"`
}

// ScoreResult is the terminal artifact of a scored session.
type ScoreResult struct {
	TotalPoints    float64 `json:"total_points"`
	MaxPoints      float64 `json:"max_points"`
	Percentage     float64 `json:"percentage"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	Passed         bool    `json:"passed"`
	PassingScore   float64 `json:"passing_score"`

	QuestionResults   []QuestionResult            `json:"question_results"`
	CompetencyResults map[string]CompetencyResult `json:"competency_results,omitempty"`

	GradeLetter           string        `json:"grade_letter"`
	TimeBonus             float64       `json:"time_bonus"`
	FinalScore            float64       `json:"final_score"`
	ScoringMethod         ScoringMethod `json:"scoring_method"`
	RequiresManualReview  bool          `json:"requires_manual_review"`
	ManualReviewQuestions []string      `json:"manual_review_questions"`
}

// IsProvisional reports whether unresolved manual-review items remain.
func (r *ScoreResult) IsProvisional() bool {
	return r.RequiresManualReview
}

// PerformanceReport is the qualitative summary derived from a ScoreResult.
type PerformanceReport struct {
	AssessmentID        string   `json:"assessment_id"`
	Percentage          float64  `json:"percentage"`
	FinalScore          float64  `json:"final_score"`
	GradeLetter         string   `json:"grade_letter"`
	Passed              bool     `json:"passed"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	Recommendations     []string `json:"recommendations"`
	ManualReviewPending bool     `json:"manual_review_pending"`
}
