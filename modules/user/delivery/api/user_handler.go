package api

import (
	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	usecase     domain.UserUsecase
	middlewares middleware.Middlewares
}

func NewUserHandler(usecase domain.UserUsecase, middlewares middleware.Middlewares) *UserHandler {
	return &UserHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(h.middlewares.Authenticator())
	users.Use(h.middlewares.APIRateLimits())

	users.GET("/me", h.GetMe)
	users.PATCH("/me", h.UpdateMe)
	users.POST("/me/change-password", h.ChangePassword)

	admin := users.Group("")
	admin.Use(h.middlewares.RequireAnyRoles(domain.AdminRoles...))
	{
		admin.GET("", h.List)
		admin.GET("/:id", h.GetByID)
		admin.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *UserHandler) GetMe(c *gin.Context) {
	common.ResponseOK(c, common.GetUserFromCtx(c), "User found")
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req domain.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	me := common.GetUserFromCtx(c)
	user, err := h.usecase.Update(c.Request.Context(), me.ID, &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	user.Roles = me.Roles
	common.ResponseOK(c, user, "User updated successfully")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req domain.UserChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	me := common.GetUserFromCtx(c)
	if err := h.usecase.ChangePassword(c.Request.Context(), me.ID, &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}

func (h *UserHandler) List(c *gin.Context) {
	var query domain.UserListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	result, err := h.usecase.List(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Users found")
}

func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.usecase.FindByID(c.Request.Context(), c.Param("id"), &domain.FindOneOption{
		Preloads: []string{common.FieldRoles},
	})
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "User found")
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req domain.UserStatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	user, err := h.usecase.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "User status updated")
}
