package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"auction-market/domain"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"
	"auction-market/pkg/pagination"
)

const unreadCountKeyPrefix = "notifications:unread:"

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	FindOne(ctx context.Context, filter *domain.NotificationFilter) (*domain.Notification, error)
	FindPage(ctx context.Context, filter *domain.NotificationFilter, option *domain.FindPageOption) ([]*domain.Notification, *domain.Pagination, error)
	MarkRead(ctx context.Context, filter *domain.NotificationFilter) (int64, error)
	Count(ctx context.Context, filter *domain.NotificationFilter) (int64, error)
}

type Deps struct {
	Repo         NotificationRepository
	EmailUsecase domain.EmailUsecase
	Cache        cache.Client
	Paginator    *pagination.Paginator
	Logger       log.Logger
	// UnreadCountTTL is how long a cached unread counter may be served
	UnreadCountTTL time.Duration
}

type notificationUsecase struct {
	repo           NotificationRepository
	emailUsecase   domain.EmailUsecase
	cache          cache.Client
	paginator      *pagination.Paginator
	logger         log.Logger
	unreadCountTTL time.Duration
}

func NewNotificationUsecase(deps *Deps) domain.NotificationUsecase {
	ttl := deps.UnreadCountTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &notificationUsecase{
		repo:           deps.Repo,
		emailUsecase:   deps.EmailUsecase,
		cache:          deps.Cache,
		paginator:      deps.Paginator,
		logger:         deps.Logger,
		unreadCountTTL: ttl,
	}
}

// Notify stores the notification first; a failing email is logged and does
// not undo it.
func (n *notificationUsecase) Notify(ctx context.Context, req *domain.NotifyRequest) (*domain.Notification, error) {
	if !req.Type.IsValid() {
		return nil, domain.ErrBadRequest.WithReasonf("unknown notification type %q", req.Type)
	}

	notification := &domain.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    domain.JSONB(req.Data),
	}
	if err := n.repo.Create(ctx, notification); err != nil {
		return nil, domain.ErrNotificationCreateFailed.WithWrap(err)
	}
	n.dropUnreadCount(ctx, req.UserID)

	if req.EmailTemplate != "" && req.EmailTo != "" {
		_, err := n.emailUsecase.SendEmailWithTemplate(ctx, &domain.SendEmailWithTemplateRequest{
			To:           []string{req.EmailTo},
			TemplateCode: req.EmailTemplate,
			Data:         req.Data,
			RequestID:    log.RequestIDFromContext(ctx),
		})
		if err != nil {
			n.logger.ErrorContext(ctx, "Failed to email notification",
				log.UserID(req.UserID),
				log.String("template", string(req.EmailTemplate)),
				log.Error(err),
			)
		}
	}

	return notification, nil
}

func (n *notificationUsecase) List(ctx context.Context, userID string, query *domain.NotificationListQuery) (*domain.PageResult[*domain.Notification], error) {
	page, perPage := n.paginator.Normalize(query.Page, query.PerPage)

	filter := &domain.NotificationFilter{
		UserID:     &userID,
		UnreadOnly: query.UnreadOnly,
	}
	if query.Type != "" {
		t := domain.NotificationType(query.Type)
		filter.Type = &t
	}

	items, pager, err := n.repo.FindPage(ctx, filter, &domain.FindPageOption{
		Sort:    []string{"created_at DESC", "id"},
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return domain.NewPageResult(items, pager, n.paginator), nil
}

func (n *notificationUsecase) MarkRead(ctx context.Context, userID, notificationID string) error {
	notification, err := n.repo.FindOne(ctx, &domain.NotificationFilter{ID: &notificationID, UserID: &userID})
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.ErrNotificationNotFound
		}
		return domain.ErrInternalServerError.WithWrap(err)
	}
	if notification.IsRead() {
		return nil
	}

	if _, err := n.repo.MarkRead(ctx, &domain.NotificationFilter{ID: &notification.ID, UserID: &userID}); err != nil {
		return domain.ErrNotificationUpdateFailed.WithWrap(err)
	}
	n.dropUnreadCount(ctx, userID)
	return nil
}

func (n *notificationUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := n.repo.MarkRead(ctx, &domain.NotificationFilter{UserID: &userID})
	if err != nil {
		return 0, domain.ErrNotificationUpdateFailed.WithWrap(err)
	}
	n.dropUnreadCount(ctx, userID)
	return count, nil
}

func (n *notificationUsecase) UnreadCount(ctx context.Context, userID string) (int64, error) {
	key := unreadCountKeyPrefix + userID
	raw, err := n.cache.Get(ctx, key)
	if err == nil {
		if count, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			return count, nil
		}
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		n.logger.WarnContext(ctx, "Unread counter cache read failed", log.UserID(userID), log.Error(err))
	}

	count, err := n.repo.Count(ctx, &domain.NotificationFilter{UserID: &userID, UnreadOnly: true})
	if err != nil {
		return 0, domain.ErrInternalServerError.WithWrap(err)
	}
	if err := n.cache.Set(ctx, key, []byte(strconv.FormatInt(count, 10)), n.unreadCountTTL); err != nil {
		n.logger.WarnContext(ctx, "Unread counter cache write failed", log.UserID(userID), log.Error(err))
	}
	return count, nil
}

func (n *notificationUsecase) dropUnreadCount(ctx context.Context, userID string) {
	if err := n.cache.Delete(ctx, unreadCountKeyPrefix+userID); err != nil {
		n.logger.WarnContext(ctx, "Failed to drop unread counter", log.UserID(userID), log.Error(err))
	}
}
