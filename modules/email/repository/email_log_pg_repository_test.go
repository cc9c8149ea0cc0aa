package repository

import (
	"context"
	"testing"

	"auction-market/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestEmailLogRepository_GetStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEmailLogRepository(db)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "email_logs" WHERE deleted_at = 0 GROUP BY "?status"?`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("success", 6).
			AddRow("failed", 1).
			AddRow("pending", 1))

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 8, stats.TotalSent)
	assert.EqualValues(t, 6, stats.TotalSuccess)
	assert.EqualValues(t, 1, stats.TotalFailed)
	assert.EqualValues(t, 1, stats.TotalPending)
	assert.InDelta(t, 0.75, stats.SuccessRate, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailLogRepository_FindPage_ByRecipient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEmailLogRepository(db)

	recipient := "alice@example.com"
	status := domain.EmailStatusFailed
	mock.ExpectQuery(`SELECT count\(\*\) FROM "email_logs" WHERE \(\("to"::text ILIKE \$1 OR cc::text ILIKE \$2 OR bcc::text ILIKE \$3\)\) AND status = \$4 AND deleted_at = 0`).
		WithArgs(`%"alice@example.com"%`, `%"alice@example.com"%`, `%"alice@example.com"%`, "failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	logs, pager, err := repo.FindPage(context.Background(), &domain.EmailLogFilter{AnyRecipient: &recipient, Status: &status}, &domain.FindPageOption{Page: 1, PerPage: 12})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.EqualValues(t, 0, pager.TotalItems)
	assert.NoError(t, mock.ExpectationsWereMet())
}
