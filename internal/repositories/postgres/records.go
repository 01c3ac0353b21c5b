package postgres

import (
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

// Domain values are stored as JSONB documents next to a few indexed columns
// used for filtering.

type assessmentRecord struct {
	ID        string                                `gorm:"primaryKey;size:64"`
	Title     string                                `gorm:"size:200;not null"`
	Status    string                                `gorm:"size:20;index"`
	Document  datatypes.JSONType[models.Assessment] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (assessmentRecord) TableName() string { return "assessments" }

type sessionRecord struct {
	ID                   string `gorm:"primaryKey;size:64"`
	AssessmentID         string `gorm:"size:64;index:idx_sessions_attempts,priority:1;not null"`
	UserID               string `gorm:"size:64;index:idx_sessions_attempts,priority:2;not null"`
	Status               string `gorm:"size:20;index"`
	CurrentQuestionIndex int
	StartedAt            time.Time `gorm:"index"`
	CompletedAt          *time.Time
	Session              datatypes.JSONType[models.AssessmentSession] `gorm:"type:jsonb;not null"`
	Responses            datatypes.JSON                               `gorm:"type:jsonb"`
	UpdatedAt            time.Time
}

func (sessionRecord) TableName() string { return "assessment_sessions" }

type resultRecord struct {
	SessionID    string `gorm:"primaryKey;size:64"`
	AssessmentID string `gorm:"size:64;index"`
	UserID       string `gorm:"size:64;index"`
	Percentage   float64
	FinalScore   float64
	GradeLetter  string `gorm:"size:2"`
	Passed       bool
	Provisional  bool                                   `gorm:"index"`
	Result       datatypes.JSONType[models.ScoreResult] `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (resultRecord) TableName() string { return "score_results" }

func newAssessmentRecord(a *models.Assessment) *assessmentRecord {
	return &assessmentRecord{
		ID:       a.ID,
		Title:    a.Title,
		Status:   string(a.Status),
		Document: datatypes.NewJSONType(*a),
	}
}

func newSessionRecord(snap *repositories.SessionSnapshot, responses []byte) *sessionRecord {
	s := snap.Session
	return &sessionRecord{
		ID:                   s.ID,
		AssessmentID:         s.AssessmentID,
		UserID:               s.UserID,
		Status:               string(s.Status),
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		StartedAt:            s.StartedAt,
		CompletedAt:          s.CompletedAt,
		Session:              datatypes.NewJSONType(s),
		Responses:            datatypes.JSON(responses),
	}
}

func newResultRecord(s *models.AssessmentSession, score *models.ScoreResult) *resultRecord {
	return &resultRecord{
		SessionID:    s.ID,
		AssessmentID: s.AssessmentID,
		UserID:       s.UserID,
		Percentage:   score.Percentage,
		FinalScore:   score.FinalScore,
		GradeLetter:  score.GradeLetter,
		Passed:       score.Passed,
		Provisional:  score.IsProvisional(),
		Result:       datatypes.NewJSONType(*score),
	}
}
