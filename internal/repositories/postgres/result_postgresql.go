package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

// Save stores the score of a session, replacing an earlier one.
func (r *ResultPostgreSQL) Save(ctx context.Context, session *models.AssessmentSession, score *models.ScoreResult) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(newResultRecord(session, score)).Error
}

func (r *ResultPostgreSQL) GetBySessionID(ctx context.Context, sessionID string) (*models.ScoreResult, error) {
	var rec resultRecord
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	score := rec.Result.Data()
	return &score, nil
}
