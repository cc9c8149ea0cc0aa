package database

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

type widget struct {
	domain.SQLModel
	Name string
}

type widgetFilter struct {
	Name *string
}

func applyWidgetFilter(db *gorm.DB, filter *widgetFilter) *gorm.DB {
	db = db.Where("deleted_at = 0")
	if filter != nil && filter.Name != nil {
		db = db.Where("name = ?", *filter.Name)
	}
	return db
}

func newMockHandler(t *testing.T) (*SQLHandler[widget, widgetFilter], sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	return NewSQLHandler[widget](db, applyWidgetFilter), mock
}

func widgetRows(ids ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at", "deleted_at"})
	for _, id := range ids {
		rows.AddRow(id, "widget "+id, 1, 1, 0)
	}
	return rows
}

func TestSQLHandler_FindPage_ClampsPastLastPage(t *testing.T) {
	h, mock := newMockHandler(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "widgets" WHERE deleted_at = 0`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectQuery(`SELECT \* FROM "widgets" WHERE deleted_at = 0 ORDER BY id LIMIT (\$\d+|12) OFFSET (\$\d+|24)`).
		WillReturnRows(widgetRows("w25", "w26", "w27", "w28", "w29", "w30"))

	items, page, err := h.FindPage(context.Background(), nil, &domain.FindPageOption{
		Sort:    []string{"id"},
		Page:    99,
		PerPage: 12,
	})
	require.NoError(t, err)
	assert.Len(t, items, 6)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, int64(30), page.TotalItems)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_FindPage_EmptySkipsSelect(t *testing.T) {
	h, mock := newMockHandler(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "widgets"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, page, err := h.FindPage(context.Background(), nil, &domain.FindPageOption{Page: 4, PerPage: 24})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, page.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_FindByID_NotFound(t *testing.T) {
	h, mock := newMockHandler(t)

	mock.ExpectQuery(`SELECT \* FROM "widgets" WHERE id = \$1 AND deleted_at = 0`).
		WillReturnRows(widgetRows())

	got, err := h.FindByID(context.Background(), "missing", nil)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_FindOne(t *testing.T) {
	h, mock := newMockHandler(t)
	name := "widget w1"

	mock.ExpectQuery(`SELECT \* FROM "widgets" WHERE deleted_at = 0 AND name = \$1`).
		WillReturnRows(widgetRows("w1"))

	got, err := h.FindOne(context.Background(), &widgetFilter{Name: &name}, nil)
	require.NoError(t, err)
	assert.Equal(t, "w1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLHandler_UpdateWhere_ReportsRowsAffected(t *testing.T) {
	h, mock := newMockHandler(t)
	name := "widget w1"

	mock.ExpectExec(`UPDATE "widgets" SET .* WHERE deleted_at = 0 AND name = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := h.UpdateWhere(context.Background(), &widgetFilter{Name: &name}, map[string]any{"name": "renamed"})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetValidSearchFields(t *testing.T) {
	searchable := map[string]string{
		"title":       "products.title",
		"description": "products.description",
	}

	assert.Equal(t, []string{"products.description", "products.title"}, getValidSearchFields(nil, searchable))
	assert.Equal(t, []string{"products.title"}, getValidSearchFields([]string{"title", "unknown"}, searchable))
	assert.Empty(t, getValidSearchFields([]string{"unknown"}, searchable))
}

func TestBuildPartialMatchQuery_EscapesWildcards(t *testing.T) {
	q := buildPartialMatchQuery([]string{"products.title"}, "50%_off")
	assert.Equal(t, "products.title ILIKE ?", q.condition)
	assert.Equal(t, []any{`%50\%\_off%`}, q.args)
}
