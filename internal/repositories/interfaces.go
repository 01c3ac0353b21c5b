package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ===== SHARED FILTER STRUCTS =====

type SessionFilters struct {
	AssessmentID string                `json:"assessment_id"`
	UserID       string                `json:"user_id"`
	Status       *models.SessionStatus `json:"status"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	SortOrder    string                `json:"sort_order"` // "asc", "desc" on started_at
}

// SessionSnapshot is a persisted copy of a session and the responses recorded so far.
type SessionSnapshot struct {
	Session   models.AssessmentSession           `json:"session"`
	Responses map[string]models.QuestionResponse `json:"responses"`
}

// ===== REPOSITORIES =====

// AssessmentRepository loads authored assessments. The engine never writes
// them; Save exists for seeding and the authoring workflow.
type AssessmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	Save(ctx context.Context, assessment *models.Assessment) error
}

// SessionRepository keeps durable snapshots of sessions.
type SessionRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *SessionSnapshot) error
	GetSnapshot(ctx context.Context, sessionID string) (*SessionSnapshot, error)
	List(ctx context.Context, filters SessionFilters) ([]*models.AssessmentSession, int64, error)
	// CountAttempts counts sessions a user started for an assessment, excluding abandoned ones.
	CountAttempts(ctx context.Context, assessmentID, userID string) (int64, error)
}

// ResultRepository stores the score of each completed session.
type ResultRepository interface {
	Save(ctx context.Context, session *models.AssessmentSession, score *models.ScoreResult) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.ScoreResult, error)
}

// Repository groups the repositories used by the services.
type Repository interface {
	Assessments() AssessmentRepository
	Sessions() SessionRepository
	Results() ResultRepository
}
