package models

type AssessmentStatus string

const (
	StatusDraft     AssessmentStatus = "draft"
	StatusPublished AssessmentStatus = "published"
	StatusArchived  AssessmentStatus = "archived"
)

type ScoringMethod string

const (
	ScoringStandard   ScoringMethod = "standard"
	ScoringWeighted   ScoringMethod = "weighted"
	ScoringCompetency ScoringMethod = "competency"
	// ScoringAdaptive is accepted for API compatibility and scores exactly like
	// ScoringStandard.
	ScoringAdaptive ScoringMethod = "adaptive"
)

const DefaultPassingScore = 70.0

// Assessment is a read-only view of an authored, ordered question set plus its
// grading policy.
type Assessment struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	Questions   []Question `json:"questions" validate:"required,min=1"`

	TimeLimit        int                      `json:"time_limit,omitempty" validate:"gte=0"` // seconds, 0 = unlimited
	// PassingScore is a percentage. 0 means unset: the engine's MinPassingScore
	// applies, then DefaultPassingScore. A pass mark of 0 can only be requested
	// per call through ScoringOptions.PassingScore.
	PassingScore     float64                  `json:"passing_score,omitempty" validate:"gte=0,lte=100"`
	AllowedAttempts  int                      `json:"allowed_attempts,omitempty" validate:"gte=0"`
	ShuffleQuestions bool                     `json:"shuffle_questions,omitempty"`
	ShuffleOptions   bool                     `json:"shuffle_options,omitempty"`
	ScoringMethod    ScoringMethod            `json:"scoring_method,omitempty" validate:"omitempty,scoring_method"`
	Weights          map[QuestionType]float64 `json:"weights,omitempty"`
	Status           AssessmentStatus         `json:"status,omitempty" validate:"omitempty,assessment_status"`
}

// EffectivePassingScore returns the assessment's passing score, or
// DefaultPassingScore when it is 0.
func (a *Assessment) EffectivePassingScore() float64 {
	if a.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return a.PassingScore
}

// QuestionByID looks up a question by id.
func (a *Assessment) QuestionByID(id string) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

// AssessmentEngineConfig holds engine-wide defaults that sit below assessment
// policy and per-call options.
type AssessmentEngineConfig struct {
	AutoSave         bool    `json:"auto_save"`
	SaveInterval     int     `json:"save_interval" validate:"gte=0"` // seconds
	MinPassingScore  float64 `json:"min_passing_score" validate:"gte=0,lte=100"`
	MaxAttempts      int     `json:"max_attempts" validate:"gte=0"`
	ShuffleQuestions bool    `json:"shuffle_questions"`
	ShuffleOptions   bool    `json:"shuffle_options"`
}

// DefaultEngineConfig mirrors the defaults used when no environment overrides exist.
func DefaultEngineConfig() AssessmentEngineConfig {
	return AssessmentEngineConfig{
		AutoSave:        true,
		SaveInterval:    30,
		MinPassingScore: DefaultPassingScore,
		MaxAttempts:     3,
	}
}

// StartAssessmentOptions override assessment and engine defaults for one session.
type StartAssessmentOptions struct {
	ShuffleQuestions *bool `json:"shuffle_questions,omitempty"`
	ShuffleOptions   *bool `json:"shuffle_options,omitempty"`
	TimeLimit        *int  `json:"time_limit,omitempty" validate:"omitempty,gte=0"`
}

// ScoringOptions override assessment policy for a single score calculation.
type ScoringOptions struct {
	Method              ScoringMethod            `json:"method,omitempty" validate:"omitempty,scoring_method"`
	PassingScore        *float64                 `json:"passing_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Weights             map[QuestionType]float64 `json:"weights,omitempty"`
	CompetencyThreshold float64                  `json:"competency_threshold,omitempty" validate:"gte=0,lte=100"`
	IncludeTimeBonus    bool                     `json:"include_time_bonus,omitempty"`
	TimeSpent           int                      `json:"time_spent,omitempty" validate:"gte=0"` // seconds
}
