package repository

import (
	"context"

	"auction-market/database"
	"auction-market/domain"

	"gorm.io/gorm"
)

// Admin search; keys are what clients may pass in search_fields.
var userSearchableFields = map[string]string{
	"email":      "users.email",
	"first_name": "users.first_name",
	"last_name":  "users.last_name",
	"phone":      "users.phone",
}

type UserRepository struct {
	sqlHandler *database.SQLHandler[domain.User, domain.UserFilter]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		sqlHandler: database.NewSQLHandler[domain.User](db, applyUserFilter),
	}
}

// applyUserFilter expects emails already normalized by the usecase.
func applyUserFilter(qb *gorm.DB, filter *domain.UserFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("users.deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("users.id = ?", *filter.ID)
	}
	if filter.IDNe != nil {
		qb = qb.Where("users.id <> ?", *filter.IDNe)
	}
	if len(filter.IDIn) > 0 {
		qb = qb.Where("users.id IN ?", filter.IDIn)
	}
	if filter.Email != nil {
		qb = qb.Where("users.email = ?", *filter.Email)
	}
	if filter.Status != nil {
		qb = qb.Where("users.status = ?", *filter.Status)
	}
	if len(filter.HasRoles) > 0 {
		qb = qb.Where("EXISTS (SELECT 1 FROM user_roles ur WHERE ur.user_id = users.id AND ur.role_id IN ?)", filter.HasRoles)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, filter.SearchFields, userSearchableFields)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("users.deleted_at = 0")
	}

	return qb
}

// Create also inserts the user_roles rows for user.Roles.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.sqlHandler.Create(ctx, user)
}

func (r *UserRepository) FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error) {
	return r.sqlHandler.FindByID(ctx, userID, option)
}

func (r *UserRepository) FindOne(ctx context.Context, filter *domain.UserFilter, option *domain.FindOneOption) (*domain.User, error) {
	return r.sqlHandler.FindOne(ctx, filter, option)
}

func (r *UserRepository) FindPage(ctx context.Context, filter *domain.UserFilter, option *domain.FindPageOption) ([]*domain.User, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

// Update saves profile columns only; role membership is never rewritten here.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.sqlHandler.Update(ctx, user, database.WithOmit("Roles"))
}

func (r *UserRepository) UpdateFields(ctx context.Context, userID string, fields map[string]any) error {
	return r.sqlHandler.UpdateFields(ctx, userID, fields)
}
