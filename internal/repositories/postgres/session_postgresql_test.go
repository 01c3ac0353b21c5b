package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/assessment-engine/internal/models"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=test dbname=test sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func listSQL(db *gorm.DB, filters repositories.SessionFilters) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		query := applySessionFilters(tx.Model(&sessionRecord{}), filters)
		var records []sessionRecord
		return applySessionPagination(query, filters).Find(&records)
	})
}

func TestSessionListQuery(t *testing.T) {
	db := dryRunDB(t)
	completed := models.SessionCompleted

	sql := listSQL(db, repositories.SessionFilters{
		AssessmentID: "a1",
		UserID:       "learner-1",
		Status:       &completed,
		Limit:        5,
		Offset:       10,
	})
	assert.Contains(t, sql, "assessment_id = 'a1'")
	assert.Contains(t, sql, "user_id = 'learner-1'")
	assert.Contains(t, sql, "status = 'completed'")
	assert.Contains(t, sql, "ORDER BY started_at DESC")
	assert.Contains(t, sql, "LIMIT 5")
	assert.Contains(t, sql, "OFFSET 10")

	sql = listSQL(db, repositories.SessionFilters{UserID: "learner-1", SortOrder: "asc"})
	assert.Contains(t, sql, "ORDER BY started_at ASC")
	assert.NotContains(t, sql, "assessment_id")
	assert.NotContains(t, sql, "LIMIT")
	assert.NotContains(t, sql, "OFFSET")
}
