package repository

import (
	"context"

	"auction-market/database"
	"auction-market/domain"

	"gorm.io/gorm"
)

var productSearchableFields = map[string]string{
	"title":       "products.title",
	"description": "products.description",
	"category":    "products.category",
}

type ProductRepository struct {
	sqlHandler *database.SQLHandler[domain.Product, domain.ProductFilter]
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	sqlHandler := database.NewSQLHandler[domain.Product](db, applyFilter)
	return &ProductRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.ProductFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("products.deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("products.id = ?", *filter.ID)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("products.id IN ?", filter.IDIn)
	}
	if filter.SellerID != nil {
		qb = qb.Where("products.seller_id = ?", *filter.SellerID)
	}
	if filter.Category != nil {
		qb = qb.Where("products.category = ?", *filter.Category)
	}
	if filter.Status != nil {
		qb = qb.Where("products.status = ?", *filter.Status)
	}
	if filter.MinPrice != nil {
		qb = qb.Where("products.current_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		qb = qb.Where("products.current_price <= ?", *filter.MaxPrice)
	}
	if filter.EndsBefore != nil {
		qb = qb.Where("products.ends_at <= ?", *filter.EndsBefore)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, filter.SearchFields, productSearchableFields)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("products.deleted_at = 0")
	}

	return qb
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.sqlHandler.Create(ctx, product, database.WithOmit("Seller"))
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string, option *domain.FindOneOption) (*domain.Product, error) {
	return r.sqlHandler.FindByID(ctx, productID, option)
}

func (r *ProductRepository) FindMany(ctx context.Context, filter *domain.ProductFilter, option *domain.FindManyOption) ([]*domain.Product, error) {
	return r.sqlHandler.FindMany(ctx, filter, option)
}

func (r *ProductRepository) FindPage(ctx context.Context, filter *domain.ProductFilter, option *domain.FindPageOption) ([]*domain.Product, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

func (r *ProductRepository) UpdateFields(ctx context.Context, productID string, fields map[string]any) error {
	return r.sqlHandler.UpdateFields(ctx, productID, fields)
}

// UpdateUnbidFields applies fields only while the product has no bids and
// reports whether the row was changed.
func (r *ProductRepository) UpdateUnbidFields(ctx context.Context, productID string, fields map[string]any) (bool, error) {
	result := r.sqlHandler.DB().WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND bid_count = 0 AND deleted_at = 0", productID).
		Updates(fields)
	return result.RowsAffected == 1, result.Error
}

// CloseAuction moves an active product to ended. It returns false when another
// worker closed it first.
func (r *ProductRepository) CloseAuction(ctx context.Context, productID string, winnerID *string) (bool, error) {
	status := domain.ProductSTTActive
	affected, err := r.sqlHandler.UpdateWhere(ctx, &domain.ProductFilter{ID: &productID, Status: &status}, map[string]any{
		"status":    domain.ProductSTTEnded,
		"winner_id": winnerID,
	})
	return affected == 1, err
}

func (r *ProductRepository) DeleteByID(ctx context.Context, productID string) error {
	return r.sqlHandler.DeleteByID(ctx, productID)
}
