package domain

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

/****************************
*         Bid errors        *
****************************/
var (
	ErrBidTooLow = &DetailedError{
		IDField:         "BID_TOO_LOW",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "Bid amount is below the minimum allowed bid",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
	ErrAuctionClosed = &DetailedError{
		IDField:         "AUCTION_CLOSED",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "The auction is not accepting bids",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
	ErrBidOnOwnProduct = &DetailedError{
		IDField:         "BID_ON_OWN_PRODUCT",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "Sellers cannot bid on their own products",
		StatusCodeField: http.StatusForbidden,
	}
	ErrAlreadyHighestBidder = &DetailedError{
		IDField:         "ALREADY_HIGHEST_BIDDER",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "You already hold the highest bid",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
	ErrBidConflict = &DetailedError{
		IDField:         "BID_CONFLICT",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Another bid was placed at the same time, please retry",
		StatusCodeField: http.StatusConflict,
	}
	ErrBidPlaceFailed = &DetailedError{
		IDField:         "BID_PLACE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to place bid",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrBidListFailed = &DetailedError{
		IDField:         "BID_LIST_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to list bids",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*        Bid entities and types        *
***************************************/
type Bid struct {
	SQLModel
	ProductID string          `json:"product_id" gorm:"type:varchar(36);not null;index:idx_bid_product_amount,priority:1"`
	BidderID  string          `json:"bidder_id" gorm:"type:varchar(36);not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null;index:idx_bid_product_amount,priority:2"`
	Bidder    *User           `json:"bidder,omitempty" gorm:"foreignKey:BidderID"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

type BidFilter struct {
	ID             *string `json:"id,omitempty"`
	ProductID      *string `json:"product_id,omitempty"`
	BidderID       *string `json:"bidder_id,omitempty"`
	IncludeDeleted *bool   `json:"include_deleted,omitempty"`
}

/*****************************************
*     Bid usecase interfaces and types    *
*****************************************/
type BidUsecase interface {
	PlaceBid(ctx context.Context, bidder *User, productID string, req *PlaceBidRequest) (*Bid, error)
	ListByProduct(ctx context.Context, productID string, query *BidListQuery) (*PageResult[*Bid], error)
	ListByBidder(ctx context.Context, bidderID string, query *BidListQuery) (*PageResult[*Bid], error)
	HighestBid(ctx context.Context, productID string) (*Bid, error)
	// Drain blocks until background bid notifications are delivered or ctx ends.
	Drain(ctx context.Context) error
}

type PlaceBidRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_gt0"`
}

type BidListQuery struct {
	PageQuery
}
