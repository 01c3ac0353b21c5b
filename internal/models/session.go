package models

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionPaused     SessionStatus = "paused"
	SessionCompleted  SessionStatus = "completed"
	SessionExpired    SessionStatus = "expired"
	SessionAbandoned  SessionStatus = "abandoned"
)

// AssessmentSession is one learner's attempt at an assessment.
type AssessmentSession struct {
	ID                   string        `json:"id"`
	AssessmentID         string        `json:"assessment_id"`
	UserID               string        `json:"user_id"`
	Status               SessionStatus `json:"status"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	QuestionOrder        []string      `json:"question_order"`
	ShuffleOptions       bool          `json:"shuffle_options,omitempty"`

	StartedAt     time.Time  `json:"started_at"`
	PausedAt      *time.Time `json:"paused_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	TimeLimit     int        `json:"time_limit,omitempty"` // seconds
	TimeRemaining *int       `json:"time_remaining,omitempty"`
	PausedSeconds int        `json:"paused_seconds,omitempty"`
}

// IsTerminal reports whether no further transitions are allowed.
func (s *AssessmentSession) IsTerminal() bool {
	switch s.Status {
	case SessionCompleted, SessionExpired, SessionAbandoned:
		return true
	}
	return false
}

// ElapsedSeconds returns the active whole seconds between start and completion
// (or now). Time spent paused is excluded.
func (s *AssessmentSession) ElapsedSeconds(now time.Time) int {
	end := now
	if s.CompletedAt != nil {
		end = *s.CompletedAt
	}
	elapsed := int(end.Sub(s.StartedAt).Seconds()) - s.PausedSeconds
	if s.PausedAt != nil && s.CompletedAt == nil {
		elapsed -= int(end.Sub(*s.PausedAt).Seconds())
	}
	return max(elapsed, 0)
}

// Progress is the share of the question order already passed, 0-100.
func (s *AssessmentSession) Progress() float64 {
	if len(s.QuestionOrder) == 0 {
		return 0
	}
	return float64(s.CurrentQuestionIndex) / float64(len(s.QuestionOrder)) * 100
}
