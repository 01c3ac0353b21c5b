package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) SaveSnapshot(ctx context.Context, snapshot *repositories.SessionSnapshot) error {
	responses, err := json.Marshal(snapshot.Responses)
	if err != nil {
		return fmt.Errorf("failed to encode responses: %w", err)
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(newSessionRecord(snapshot, responses)).Error
}

func (s *SessionPostgreSQL) GetSnapshot(ctx context.Context, sessionID string) (*repositories.SessionSnapshot, error) {
	var rec sessionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	return rec.snapshot()
}

func (r *sessionRecord) snapshot() (*repositories.SessionSnapshot, error) {
	snap := &repositories.SessionSnapshot{
		Session:   r.Session.Data(),
		Responses: map[string]models.QuestionResponse{},
	}
	if len(r.Responses) > 0 {
		if err := json.Unmarshal(r.Responses, &snap.Responses); err != nil {
			return nil, fmt.Errorf("failed to decode responses of session %s: %w", r.ID, err)
		}
	}
	return snap, nil
}

func (s *SessionPostgreSQL) List(ctx context.Context, filters repositories.SessionFilters) ([]*models.AssessmentSession, int64, error) {
	var records []sessionRecord
	var total int64

	// apply filter first
	query := s.db.WithContext(ctx).Model(&sessionRecord{})
	query = applySessionFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applySessionPagination(query, filters)

	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}

	sessions := make([]*models.AssessmentSession, 0, len(records))
	for i := range records {
		session := records[i].Session.Data()
		sessions = append(sessions, &session)
	}
	return sessions, total, nil
}

func (s *SessionPostgreSQL) CountAttempts(ctx context.Context, assessmentID, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&sessionRecord{}).
		Where("assessment_id = ? AND user_id = ? AND status <> ?", assessmentID, userID, models.SessionAbandoned).
		Count(&count).Error
	return count, err
}

func applySessionFilters(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	if filters.AssessmentID != "" {
		query = query.Where("assessment_id = ?", filters.AssessmentID)
	}
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

func applySessionPagination(query *gorm.DB, filters repositories.SessionFilters) *gorm.DB {
	order := "started_at DESC"
	if filters.SortOrder == "asc" {
		order = "started_at ASC"
	}
	query = query.Order(order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
