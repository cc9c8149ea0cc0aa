package repository

import (
	"context"
	"testing"

	"auction-market/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepository(t *testing.T) (*BidRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return NewBidRepository(db), mock
}

func newBid() *domain.Bid {
	return &domain.Bid{
		ProductID: "product-1",
		BidderID:  "bidder-1",
		Amount:    decimal.RequireFromString("42.00"),
	}
}

func TestBidRepository_Place(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "bids"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bid-1"))
	mock.ExpectExec(`UPDATE "products" SET .* WHERE id = \$\d+ AND bid_count = \$\d+ AND status = \$\d+ AND ends_at > \$\d+ AND deleted_at = 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bid := newBid()
	placed, err := repo.Place(context.Background(), bid, 2, 1000)
	require.NoError(t, err)
	assert.True(t, placed)
	assert.Equal(t, "bid-1", bid.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepository_Place_RollsBackWhenProductMoved(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "bids"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bid-1"))
	mock.ExpectExec(`UPDATE "products"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	placed, err := repo.Place(context.Background(), newBid(), 2, 1000)
	require.NoError(t, err)
	assert.False(t, placed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepository_FindHighest(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT \* FROM "bids" WHERE bids.product_id = \$1 AND bids.deleted_at = 0 ORDER BY bids.amount DESC,bids.created_at ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "bidder_id", "amount"}).
			AddRow("bid-9", "product-1", "bidder-2", "55.00"))

	bid, err := repo.FindHighest(context.Background(), "product-1")
	require.NoError(t, err)
	assert.Equal(t, "bid-9", bid.ID)
	assert.True(t, bid.Amount.Equal(decimal.NewFromInt(55)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
