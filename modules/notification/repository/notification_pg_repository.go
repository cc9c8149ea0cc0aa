package repository

import (
	"context"

	"auction-market/database"
	"auction-market/domain"
	"auction-market/pkg/utils"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	sqlHandler *database.SQLHandler[domain.Notification, domain.NotificationFilter]
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	sqlHandler := database.NewSQLHandler[domain.Notification](db, applyFilter)
	return &NotificationRepository{
		sqlHandler: sqlHandler,
	}
}

func applyFilter(qb *gorm.DB, filter *domain.NotificationFilter) *gorm.DB {
	if filter == nil {
		return qb.Where("deleted_at = 0")
	}

	if filter.ID != nil {
		qb = qb.Where("id = ?", *filter.ID)
	}
	if filter.UserID != nil {
		qb = qb.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		qb = qb.Where("type = ?", *filter.Type)
	}
	if filter.UnreadOnly {
		qb = qb.Where("read_at = 0")
	}
	if filter.IncludeDeleted == nil || !*filter.IncludeDeleted {
		qb = qb.Where("deleted_at = 0")
	}

	return qb
}

func (r *NotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.sqlHandler.Create(ctx, notification)
}

func (r *NotificationRepository) FindOne(ctx context.Context, filter *domain.NotificationFilter) (*domain.Notification, error) {
	return r.sqlHandler.FindOne(ctx, filter, nil)
}

func (r *NotificationRepository) FindPage(ctx context.Context, filter *domain.NotificationFilter, option *domain.FindPageOption) ([]*domain.Notification, *domain.Pagination, error) {
	return r.sqlHandler.FindPage(ctx, filter, option)
}

// MarkRead stamps the unread notifications matched by filter and returns how
// many changed.
func (r *NotificationRepository) MarkRead(ctx context.Context, filter *domain.NotificationFilter) (int64, error) {
	unread := *filter
	unread.UnreadOnly = true
	return r.sqlHandler.UpdateWhere(ctx, &unread, map[string]any{
		"read_at": utils.NowUnixMillis(),
	})
}

func (r *NotificationRepository) Count(ctx context.Context, filter *domain.NotificationFilter) (int64, error) {
	return r.sqlHandler.Count(ctx, filter)
}
