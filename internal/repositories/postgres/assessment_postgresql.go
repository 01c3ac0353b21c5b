package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db}
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	var rec assessmentRecord
	if err := a.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	assessment := rec.Document.Data()
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) Save(ctx context.Context, assessment *models.Assessment) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(newAssessmentRecord(assessment)).Error
}
