package domain

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

/****************************
*       Product errors      *
****************************/
var (
	ErrProductNotFound = &DetailedError{
		IDField:         "PRODUCT_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Product not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrProductCreationFailed = &DetailedError{
		IDField:         "PRODUCT_CREATION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create product",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrProductUpdateFailed = &DetailedError{
		IDField:         "PRODUCT_UPDATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to update product",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrProductDeletionFailed = &DetailedError{
		IDField:         "PRODUCT_DELETION_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to delete product",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrProductNotOwned = &DetailedError{
		IDField:         "PRODUCT_NOT_OWNED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "Only the seller can change this product",
		StatusCodeField: http.StatusForbidden,
	}
	ErrProductPriceLocked = &DetailedError{
		IDField:         "PRODUCT_PRICE_LOCKED",
		StatusDescField: http.StatusText(http.StatusUnprocessableEntity),
		ErrorField:      "Prices and end time cannot change once bidding started",
		StatusCodeField: http.StatusUnprocessableEntity,
	}
	ErrProductListFailed = &DetailedError{
		IDField:         "PRODUCT_LIST_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to list products",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrInvalidPriceRange = &DetailedError{
		IDField:         "INVALID_PRICE_RANGE",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "min_price must not be greater than max_price",
		StatusCodeField: http.StatusBadRequest,
	}
)

/***************************************
*      Product entities and types      *
***************************************/
type ProductStatus string

const (
	ProductSTTActive    ProductStatus = "active"
	ProductSTTEnded     ProductStatus = "ended"
	ProductSTTCancelled ProductStatus = "cancelled"
)

func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductSTTActive, ProductSTTEnded, ProductSTTCancelled:
		return true
	}
	return false
}

const (
	ProductRelatedType = "product"
	ProductImagesField = "images"

	// ProductListCacheNamespace prefixes cached list pages. Any write that
	// changes what a list shows drops every key under it.
	ProductListCacheNamespace = "products:list"
)

type Product struct {
	SQLModel
	SellerID      string          `json:"seller_id" gorm:"type:varchar(36);not null;index"`
	Title         string          `json:"title" gorm:"type:varchar(200);not null"`
	Description   string          `json:"description" gorm:"type:text"`
	Category      string          `json:"category" gorm:"type:varchar(64);index"`
	StartingPrice decimal.Decimal `json:"starting_price" gorm:"type:numeric(14,2);not null"`
	MinIncrement  decimal.Decimal `json:"min_increment" gorm:"type:numeric(14,2);not null"`
	CurrentPrice  decimal.Decimal `json:"current_price" gorm:"type:numeric(14,2);not null"`
	BidCount      int             `json:"bid_count" gorm:"default:0"`
	Status        ProductStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	EndsAt        int64           `json:"ends_at" gorm:"index"`
	LeaderID      *string         `json:"leader_id,omitempty" gorm:"type:varchar(36)"`
	WinnerID      *string         `json:"winner_id,omitempty" gorm:"type:varchar(36)"`
	Seller        *User           `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Images        []*File         `json:"images" gorm:"-"`
}

// IsOpen reports whether the auction accepts bids at nowMillis.
func (p *Product) IsOpen(nowMillis int64) bool {
	return p.Status == ProductSTTActive && p.EndsAt > nowMillis
}

// MinNextBid is the smallest amount the next bid may have.
func (p *Product) MinNextBid() decimal.Decimal {
	if p.BidCount == 0 {
		return p.StartingPrice
	}
	return p.CurrentPrice.Add(p.MinIncrement)
}

func (p *Product) CanBeManagedBy(user *User) bool {
	if user == nil {
		return false
	}
	return p.SellerID == user.ID || user.IsAdmin()
}

type ProductFilter struct {
	ID             *string          `json:"id,omitempty"`
	IDIn           []string         `json:"id_in,omitempty"`
	SellerID       *string          `json:"seller_id,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Status         *ProductStatus   `json:"status,omitempty"`
	MinPrice       *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice       *decimal.Decimal `json:"max_price,omitempty"`
	EndsBefore     *int64           `json:"ends_before,omitempty"`
	SearchTerm     *string          `json:"search_term,omitempty"`
	SearchFields   []string         `json:"search_fields,omitempty"`
	IncludeDeleted *bool            `json:"include_deleted,omitempty"`
}

/*********************************************
*     Product usecase interfaces and types    *
*********************************************/
type ProductUsecase interface {
	Create(ctx context.Context, seller *User, req *ProductCreateRequest) (*Product, error)
	GetByID(ctx context.Context, productID string) (*Product, error)
	List(ctx context.Context, query *ProductListQuery) (*PageResult[*Product], error)
	Update(ctx context.Context, actor *User, productID string, req *ProductUpdateRequest) (*Product, error)
	Delete(ctx context.Context, actor *User, productID string) error
	AttachImages(ctx context.Context, actor *User, productID string, req *ProductImagesRequest) (*Product, error)
	CloseExpired(ctx context.Context) (int, error)
}

type ProductCreateRequest struct {
	Title         string           `json:"title" binding:"required,not_blank,min=3,max=200"`
	Description   string           `json:"description" binding:"max=5000"`
	Category      string           `json:"category" binding:"required,not_blank,max=64"`
	StartingPrice decimal.Decimal  `json:"starting_price" binding:"decimal_gt0"`
	MinIncrement  *decimal.Decimal `json:"min_increment,omitempty" binding:"omitempty,decimal_gt0"`
	EndsAt        int64            `json:"ends_at" binding:"required,future_time"`
	ImageIDs      []string         `json:"image_ids,omitempty" binding:"omitempty,max=10,dive,required"`
}

type ProductUpdateRequest struct {
	Title         *string          `json:"title,omitempty" binding:"omitempty,not_blank,min=3,max=200"`
	Description   *string          `json:"description,omitempty" binding:"omitempty,max=5000"`
	Category      *string          `json:"category,omitempty" binding:"omitempty,not_blank,max=64"`
	StartingPrice *decimal.Decimal `json:"starting_price,omitempty" binding:"omitempty,decimal_gt0"`
	MinIncrement  *decimal.Decimal `json:"min_increment,omitempty" binding:"omitempty,decimal_gt0"`
	EndsAt        *int64           `json:"ends_at,omitempty" binding:"omitempty,future_time"`
}

type ProductImagesRequest struct {
	FileIDs []string `json:"file_ids" binding:"required,min=1,max=10,dive,required"`
}

type ProductSort string

const (
	ProductSortNewest     ProductSort = "newest"
	ProductSortEndingSoon ProductSort = "ending_soon"
	ProductSortPriceAsc   ProductSort = "price_asc"
	ProductSortPriceDesc  ProductSort = "price_desc"
	ProductSortMostBids   ProductSort = "most_bids"
)

type ProductListQuery struct {
	PageQuery
	Search   string         `form:"q" binding:"omitempty,max=100"`
	Category string         `form:"category" binding:"omitempty,max=64"`
	SellerID string         `form:"seller_id" binding:"omitempty,max=36"`
	Status   *ProductStatus `form:"status" binding:"omitempty,product_status"`
	MinPrice string         `form:"min_price" binding:"omitempty,decimal_gt0"`
	MaxPrice string         `form:"max_price" binding:"omitempty,decimal_gt0"`
	Sort     ProductSort    `form:"sort" binding:"omitempty,oneof=newest ending_soon price_asc price_desc most_bids"`
}
