package repository

import (
	"context"
	"errors"

	"auction-market/database"
	"auction-market/domain"

	"gorm.io/gorm"
)

var errProductMoved = errors.New("product changed since it was read")

type BidRepository struct {
	sqlHandler *database.SQLHandler[domain.Bid, domain.BidFilter]
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	sqlHandler := database.NewSQLHandler[domain.Bid](db, applyFilter)
	return &BidRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.BidFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("bids.deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("bids.id = ?", *filter.ID)
	}
	if filter.ProductID != nil {
		qb = qb.Where("bids.product_id = ?", *filter.ProductID)
	}
	if filter.BidderID != nil {
		qb = qb.Where("bids.bidder_id = ?", *filter.BidderID)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("bids.deleted_at = 0")
	}

	return qb
}

// Place stores bid and moves the product price in one transaction. The
// product row is only updated while it still has expectedBidCount bids and
// is open at nowMillis; otherwise nothing is written and Place returns false.
func (r *BidRepository) Place(ctx context.Context, bid *domain.Bid, expectedBidCount int, nowMillis int64) (bool, error) {
	err := r.sqlHandler.Transaction(ctx, func(tx *gorm.DB) error {
		if err := r.sqlHandler.Create(ctx, bid, database.WithTx(tx)); err != nil {
			return err
		}

		result := tx.Model(&domain.Product{}).
			Where("id = ? AND bid_count = ? AND status = ? AND ends_at > ? AND deleted_at = 0",
				bid.ProductID, expectedBidCount, domain.ProductSTTActive, nowMillis).
			Updates(map[string]any{
				"current_price": bid.Amount,
				"bid_count":     gorm.Expr("bid_count + 1"),
				"leader_id":     bid.BidderID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return errProductMoved
		}
		return nil
	})
	if errors.Is(err, errProductMoved) {
		return false, nil
	}
	return err == nil, err
}

func (r *BidRepository) FindPage(ctx context.Context, filter *domain.BidFilter, option *domain.FindPageOption) ([]*domain.Bid, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

// FindHighest returns the leading bid of a product. Ties go to the earlier bid.
func (r *BidRepository) FindHighest(ctx context.Context, productID string) (*domain.Bid, error) {
	return r.sqlHandler.FindOne(ctx, &domain.BidFilter{ProductID: &productID}, &domain.FindOneOption{
		Sort: []string{"bids.amount DESC", "bids.created_at ASC"},
	})
}
