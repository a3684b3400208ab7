// AngelaMos | 2026
// repository_test.go

package tier

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestRepositoryListTiers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "tier_name", "display_name", "description",
		"color_class", "category", "level", "created_at",
	}).
		AddRow("t1", "LT1", "Lower Tier 1", "Beginner", "lt1", "LT", 1, now).
		AddRow("t2", "HT5", "Higher Tier 5", "Legendary", "ht5", "HT", 5, now)

	mock.ExpectQuery("SELECT id, tier_name").WillReturnRows(rows)

	tiers, err := repo.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, tiers, 2)

	assert.Equal(t, "LT1", tiers[0].Name)
	assert.Equal(t, 1, tiers[0].OrderValue())
	assert.Equal(t, "HT5", tiers[1].Name)
	assert.Equal(t, 10, tiers[1].OrderValue())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetSkillTypeByCodeNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery("SELECT id, skill_code").
		WithArgs("bowpvp").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetSkillTypeByCode(context.Background(), "bowpvp")
	require.Error(t, err)
	assert.ErrorContains(t, err, "not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMigrateLegacyTiers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec("INSERT INTO user_skills").
		WillReturnResult(sqlmock.NewResult(0, 7))

	migrated, err := repo.MigrateLegacyTiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), migrated)

	assert.NoError(t, mock.ExpectationsWereMet())
}
