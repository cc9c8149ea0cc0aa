package repository

import (
	"context"

	"auction-market/database"
	"auction-market/domain"

	"gorm.io/gorm"
)

type EmailLogRepository struct {
	sqlHandler *database.SQLHandler[domain.EmailLog, domain.EmailLogFilter]
}

func NewEmailLogRepository(db *gorm.DB) *EmailLogRepository {
	sqlHandler := database.NewSQLHandler[domain.EmailLog](db, applyEmailLogFilter)
	return &EmailLogRepository{
		sqlHandler: sqlHandler,
	}
}

func applyEmailLogFilter(qb *gorm.DB, filter *domain.EmailLogFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	// Recipients are stored as JSON arrays, so match the quoted address
	if filter.AnyRecipient != nil {
		needle := `%"` + *filter.AnyRecipient + `"%`
		qb = qb.Where(`("to"::text ILIKE ? OR cc::text ILIKE ? OR bcc::text ILIKE ?)`, needle, needle, needle)
	}
	if filter.Status != nil {
		qb = qb.Where("status = ?", *filter.Status)
	}
	if filter.Provider != nil {
		qb = qb.Where("provider = ?", *filter.Provider)
	}
	if filter.Template != nil {
		qb = qb.Where("template = ?", *filter.Template)
	}
	if filter.SentAfter != nil {
		qb = qb.Where("sent_at >= ?", *filter.SentAfter)
	}
	if filter.SentBefore != nil {
		qb = qb.Where("sent_at <= ?", *filter.SentBefore)
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		term := "%" + *filter.SearchTerm + "%"
		qb = qb.Where(`("to"::text ILIKE ? OR subject ILIKE ? OR template ILIKE ?)`, term, term, term)
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}

	return qb
}

func (r *EmailLogRepository) Create(ctx context.Context, emailLog *domain.EmailLog) error {
	return r.sqlHandler.Create(ctx, emailLog)
}

func (r *EmailLogRepository) FindByID(ctx context.Context, emailLogID string) (*domain.EmailLog, error) {
	return r.sqlHandler.FindByID(ctx, emailLogID, nil)
}

func (r *EmailLogRepository) FindPage(ctx context.Context, filter *domain.EmailLogFilter, option *domain.FindPageOption) ([]*domain.EmailLog, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

func (r *EmailLogRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return r.sqlHandler.UpdateFields(ctx, id, fields)
}

type statusCount struct {
	Status domain.EmailStatus
	Count  int64
}

// GetStats counts logs per delivery status in a single grouped query.
func (r *EmailLogRepository) GetStats(ctx context.Context) (*domain.EmailStats, error) {
	var rows []statusCount
	err := r.sqlHandler.DB().WithContext(ctx).
		Model(&domain.EmailLog{}).
		Select("status, COUNT(*) AS count").
		Where("deleted_at = 0").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &domain.EmailStats{}
	for _, row := range rows {
		stats.TotalSent += row.Count
		switch row.Status {
		case domain.EmailStatusSuccess:
			stats.TotalSuccess = row.Count
		case domain.EmailStatusFailed:
			stats.TotalFailed = row.Count
		case domain.EmailStatusPending:
			stats.TotalPending = row.Count
		}
	}
	if stats.TotalSent > 0 {
		stats.SuccessRate = float64(stats.TotalSuccess) / float64(stats.TotalSent)
	}
	return stats, nil
}
