package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// EventType identifies a session lifecycle event
type EventType string

const (
	EventSessionStarted        EventType = "session.started"
	EventSessionCompleted      EventType = "session.completed"
	EventManualGradingRequired EventType = "grading.manual_required"
)

const (
	eventSource  = "assessment-engine"
	eventVersion = "1.0"
)

// SessionEvent is the envelope published for every event type
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewSessionEvent wraps data in an envelope with a fresh id
func NewSessionEvent(eventType EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// Event payloads

type SessionStartedEvent struct {
	SessionID     string   `json:"session_id"`
	AssessmentID  string   `json:"assessment_id"`
	UserID        string   `json:"user_id"`
	QuestionOrder []string `json:"question_order"`
	TimeLimit     int      `json:"time_limit,omitempty"`
}

type SessionCompletedEvent struct {
	SessionID     string               `json:"session_id"`
	AssessmentID  string               `json:"assessment_id"`
	UserID        string               `json:"user_id"`
	Percentage    float64              `json:"percentage"`
	FinalScore    float64              `json:"final_score"`
	GradeLetter   string               `json:"grade_letter"`
	Passed        bool                 `json:"passed"`
	ScoringMethod models.ScoringMethod `json:"scoring_method"`
	Provisional   bool                 `json:"provisional"`
}

type ManualGradingRequiredEvent struct {
	SessionID    string   `json:"session_id"`
	AssessmentID string   `json:"assessment_id"`
	UserID       string   `json:"user_id"`
	QuestionIDs  []string `json:"question_ids"`
}

// NewSessionCompletedEvent summarizes a score for downstream consumers.
func NewSessionCompletedEvent(s *models.AssessmentSession, score *models.ScoreResult) *SessionEvent {
	return NewSessionEvent(EventSessionCompleted, SessionCompletedEvent{
		SessionID:     s.ID,
		AssessmentID:  s.AssessmentID,
		UserID:        s.UserID,
		Percentage:    score.Percentage,
		FinalScore:    score.FinalScore,
		GradeLetter:   score.GradeLetter,
		Passed:        score.Passed,
		ScoringMethod: score.ScoringMethod,
		Provisional:   score.IsProvisional(),
	})
}
