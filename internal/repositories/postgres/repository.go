package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

type repository struct {
	assessments repositories.AssessmentRepository
	sessions    repositories.SessionRepository
	results     repositories.ResultRepository
}

// NewRepository wires the Postgres implementations of every repository.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		assessments: NewAssessmentPostgreSQL(db),
		sessions:    NewSessionPostgreSQL(db),
		results:     NewResultPostgreSQL(db),
	}
}

func (r *repository) Assessments() repositories.AssessmentRepository { return r.assessments }
func (r *repository) Sessions() repositories.SessionRepository       { return r.sessions }
func (r *repository) Results() repositories.ResultRepository         { return r.results }

// AutoMigrate creates or updates the tables backing the repositories.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&assessmentRecord{}, &sessionRecord{}, &resultRecord{})
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}
