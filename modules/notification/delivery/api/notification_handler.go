package api

import (
	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	usecase     domain.NotificationUsecase
	middlewares middleware.Middlewares
}

func NewNotificationHandler(usecase domain.NotificationUsecase, middlewares middleware.Middlewares) *NotificationHandler {
	return &NotificationHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	notifications := rg.Group("/notifications")
	notifications.Use(h.middlewares.Authenticator())
	notifications.Use(h.middlewares.APIRateLimits())

	notifications.GET("", h.List)
	notifications.GET("/unread-count", h.UnreadCount)
	notifications.PATCH("/read-all", h.MarkAllRead)
	notifications.PATCH("/:id/read", h.MarkRead)
}

func (h *NotificationHandler) List(c *gin.Context) {
	var query domain.NotificationListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	result, err := h.usecase.List(c.Request.Context(), common.GetUserFromCtx(c).ID, &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Notifications found")
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.usecase.UnreadCount(c.Request.Context(), common.GetUserFromCtx(c).ID)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, domain.UnreadCountResponse{Unread: count}, "Unread notifications counted")
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.usecase.MarkRead(c.Request.Context(), common.GetUserFromCtx(c).ID, c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.usecase.MarkAllRead(c.Request.Context(), common.GetUserFromCtx(c).ID)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, map[string]int64{"updated": count}, "Notifications marked as read")
}
