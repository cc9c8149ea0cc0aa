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

func newMockRepository(t *testing.T) (*NotificationRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return NewNotificationRepository(db), mock
}

func TestNotificationRepository_MarkRead_OnlyTouchesUnread(t *testing.T) {
	repo, mock := newMockRepository(t)
	userID := "user-1"

	mock.ExpectExec(`UPDATE "notifications" SET "read_at"=\$1.* WHERE user_id = \$\d+ AND read_at = 0 AND deleted_at = 0`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	filter := &domain.NotificationFilter{UserID: &userID}
	n, err := repo.MarkRead(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.False(t, filter.UnreadOnly, "caller filter is left untouched")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CountUnread(t *testing.T) {
	repo, mock := newMockRepository(t)
	userID := "user-1"

	mock.ExpectQuery(`SELECT count\(\*\) FROM "notifications" WHERE user_id = \$1 AND read_at = 0 AND deleted_at = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	n, err := repo.Count(context.Background(), &domain.NotificationFilter{UserID: &userID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
