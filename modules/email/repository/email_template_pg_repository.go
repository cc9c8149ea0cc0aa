package repository

import (
	"context"

	"auction-market/database"
	"auction-market/domain"

	"gorm.io/gorm"
)

var emailTemplateSearchableFields = map[string]string{
	"name":        "name",
	"subject":     "subject",
	"description": "description",
}

type EmailTemplateRepository struct {
	sqlHandler *database.SQLHandler[domain.EmailTemplate, domain.EmailTemplateFilter]
}

func NewEmailTemplateRepository(db *gorm.DB) *EmailTemplateRepository {
	sqlHandler := database.NewSQLHandler[domain.EmailTemplate](db, applyEmailTemplateFilter)
	return &EmailTemplateRepository{
		sqlHandler: sqlHandler,
	}
}

func applyEmailTemplateFilter(qb *gorm.DB, filter *domain.EmailTemplateFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.Code != nil {
		qb = qb.Where("code = ?", *filter.Code)
	}
	if filter.Locale != nil {
		qb = qb.Where("locale = ?", *filter.Locale)
	}
	if filter.IsActive != nil {
		qb = qb.Where("is_active = ?", *filter.IsActive)
	}
	if filter.SearchTerm != nil {
		qb = database.ApplySearch(qb, *filter.SearchTerm, nil, emailTemplateSearchableFields)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}

	return qb
}

func (r *EmailTemplateRepository) Create(ctx context.Context, template *domain.EmailTemplate) error {
	return r.sqlHandler.Create(ctx, template)
}

func (r *EmailTemplateRepository) FindByID(ctx context.Context, templateID string) (*domain.EmailTemplate, error) {
	return r.sqlHandler.FindByID(ctx, templateID, nil)
}

func (r *EmailTemplateRepository) FindByCodeAndLocale(ctx context.Context, code domain.EmailCode, locale string) (*domain.EmailTemplate, error) {
	return r.sqlHandler.FindOne(ctx, &domain.EmailTemplateFilter{Code: &code, Locale: &locale}, nil)
}

func (r *EmailTemplateRepository) FindPage(ctx context.Context, filter *domain.EmailTemplateFilter, option *domain.FindPageOption) ([]*domain.EmailTemplate, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

func (r *EmailTemplateRepository) Update(ctx context.Context, template *domain.EmailTemplate) error {
	return r.sqlHandler.Update(ctx, template)
}
