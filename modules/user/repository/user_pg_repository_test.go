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

func TestUserRepository_FindOneByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	email := "alice@example.com"

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE users.email = \$1 AND users.deleted_at = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "status", "created_at", "updated_at", "deleted_at"}).
			AddRow("u-1", email, "Alice", "Smith", "active", 1, 1, 0))

	user, err := repo.FindOne(context.Background(), &domain.UserFilter{Email: &email}, nil)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, domain.UserSTTActive, user.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindPageByRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE \(EXISTS \(SELECT 1 FROM user_roles ur WHERE ur.user_id = users.id AND ur.role_id IN \(\$1,\$2\)\)\) AND users.deleted_at = 0`).
		WithArgs("admin", "super_admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	users, pager, err := repo.FindPage(context.Background(),
		&domain.UserFilter{HasRoles: []string{"admin", "super_admin"}},
		&domain.FindPageOption{Page: 2, PerPage: 12},
	)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Equal(t, 1, pager.Page)
	assert.Zero(t, pager.TotalItems)
	assert.NoError(t, mock.ExpectationsWereMet())
}
