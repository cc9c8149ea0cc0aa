package api

import (
	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"
	"auction-market/pkg/log"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	usecase     domain.EmailUsecase
	logger      log.Logger
	middlewares middleware.Middlewares
}

func NewEmailHandler(usecase domain.EmailUsecase, logger log.Logger, middlewares middleware.Middlewares) *EmailHandler {
	return &EmailHandler{
		usecase:     usecase,
		logger:      logger,
		middlewares: middlewares,
	}
}

func (h *EmailHandler) RegisterRoutes(rg *gin.RouterGroup) {
	emails := rg.Group("/emails")
	emails.Use(h.middlewares.Authenticator())
	emails.Use(h.middlewares.RequireAnyRoles(domain.AdminRoles...))
	emails.Use(h.middlewares.APIRateLimits())

	emails.POST("/send", h.SendEmail)
	emails.POST("/send/template", h.SendEmailWithTemplate)

	templates := emails.Group("/templates")
	{
		templates.GET("", h.ListTemplates)
		templates.POST("", h.CreateTemplate)
		templates.POST("/preview", h.PreviewTemplate)
		templates.GET("/:id", h.GetTemplate)
		templates.PATCH("/:id", h.UpdateTemplate)
	}

	logs := emails.Group("/logs")
	{
		logs.GET("", h.ListEmailLogs)
		logs.GET("/stats", h.GetEmailStats)
		logs.GET("/:id", h.GetEmailLog)
	}
}

func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req domain.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	req.RequestID = common.GetRequestIDFromCtx(c)

	emailLog, err := h.usecase.SendEmail(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "Admin email sent",
		log.String("email_log_id", emailLog.ID),
		log.UserID(common.GetUserFromCtx(c).ID),
	)
	common.ResponseCreated(c, emailLog, "Email sent successfully")
}

func (h *EmailHandler) SendEmailWithTemplate(c *gin.Context) {
	var req domain.SendEmailWithTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	req.RequestID = common.GetRequestIDFromCtx(c)

	emailLog, err := h.usecase.SendEmailWithTemplate(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, emailLog, "Template email sent successfully")
}

func (h *EmailHandler) CreateTemplate(c *gin.Context) {
	var req domain.CreateEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	template, err := h.usecase.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, template, "Email template created successfully")
}

func (h *EmailHandler) GetTemplate(c *gin.Context) {
	template, err := h.usecase.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, template, "Email template retrieved successfully")
}

func (h *EmailHandler) ListTemplates(c *gin.Context) {
	var query domain.EmailTemplateListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	result, err := h.usecase.ListTemplates(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Email templates retrieved successfully")
}

func (h *EmailHandler) UpdateTemplate(c *gin.Context) {
	var req domain.UpdateEmailTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	template, err := h.usecase.UpdateTemplate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "Email template changed",
		log.String("template_id", template.ID),
		log.UserID(common.GetUserFromCtx(c).ID),
	)
	common.ResponseOK(c, template, "Email template updated successfully")
}

func (h *EmailHandler) PreviewTemplate(c *gin.Context) {
	var req domain.EmailPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	preview, err := h.usecase.PreviewTemplate(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, preview, "Email template rendered")
}

func (h *EmailHandler) GetEmailLog(c *gin.Context) {
	emailLog, err := h.usecase.GetEmailLog(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, emailLog, "Email log retrieved successfully")
}

func (h *EmailHandler) ListEmailLogs(c *gin.Context) {
	var query domain.EmailLogListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	result, err := h.usecase.ListEmailLogs(c.Request.Context(), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Email logs retrieved successfully")
}

func (h *EmailHandler) GetEmailStats(c *gin.Context) {
	stats, err := h.usecase.GetEmailStats(c.Request.Context())
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, stats, "Email statistics retrieved successfully")
}
