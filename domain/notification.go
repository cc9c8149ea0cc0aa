package domain

import (
	"context"
	"net/http"
)

/********************************
*      Notification errors      *
********************************/
var (
	ErrNotificationNotFound = &DetailedError{
		IDField:         "NOTIFICATION_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "Notification not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrNotificationCreateFailed = &DetailedError{
		IDField:         "NOTIFICATION_CREATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create notification",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrNotificationUpdateFailed = &DetailedError{
		IDField:         "NOTIFICATION_UPDATE_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to update notification",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/*******************************************
*     Notification entities and types      *
*******************************************/
type NotificationType string

const (
	NotificationOutbid       NotificationType = "outbid"
	NotificationAuctionWon   NotificationType = "auction_won"
	NotificationAuctionEnded NotificationType = "auction_ended"
	NotificationBidReceived  NotificationType = "bid_received"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationOutbid, NotificationAuctionWon, NotificationAuctionEnded, NotificationBidReceived:
		return true
	}
	return false
}

type Notification struct {
	SQLModel
	UserID  string           `json:"user_id" gorm:"type:varchar(36);not null;index:idx_notification_user_read,priority:1"`
	Type    NotificationType `json:"type" gorm:"type:varchar(32);not null"`
	Title   string           `json:"title" gorm:"type:varchar(255);not null"`
	Message string           `json:"message" gorm:"type:text"`
	Data    JSONB            `json:"data,omitempty" gorm:"type:jsonb"`
	ReadAt  int64            `json:"read_at" gorm:"default:0;index:idx_notification_user_read,priority:2"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt > 0
}

type NotificationFilter struct {
	ID             *string           `json:"id,omitempty"`
	UserID         *string           `json:"user_id,omitempty"`
	Type           *NotificationType `json:"type,omitempty"`
	UnreadOnly     bool              `json:"unread_only,omitempty"`
	IncludeDeleted *bool             `json:"include_deleted,omitempty"`
}

/************************************************
*   Notification usecase interfaces and types    *
************************************************/
type NotificationUsecase interface {
	Notify(ctx context.Context, req *NotifyRequest) (*Notification, error)
	List(ctx context.Context, userID string, query *NotificationListQuery) (*PageResult[*Notification], error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// NotifyRequest stores an in-app notification and, when EmailTemplate is
// set, mails the same event to EmailTo.
type NotifyRequest struct {
	UserID        string
	Type          NotificationType
	Title         string
	Message       string
	Data          map[string]any
	EmailTemplate EmailCode
	EmailTo       string
}

type NotificationListQuery struct {
	PageQuery
	UnreadOnly bool   `form:"unread_only"`
	Type       string `form:"type" binding:"omitempty,notification_type"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
