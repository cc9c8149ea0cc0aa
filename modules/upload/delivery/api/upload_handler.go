package api

import (
	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	usecase     domain.UploadUsecase
	middlewares middleware.Middlewares
	maxFileSize int64
}

func NewUploadHandler(usecase domain.UploadUsecase, middlewares middleware.Middlewares, maxFileSize int64) *UploadHandler {
	return &UploadHandler{
		usecase:     usecase,
		middlewares: middlewares,
		maxFileSize: maxFileSize,
	}
}

func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	uploads := rg.Group("/uploads")
	uploads.Use(h.middlewares.Authenticator())
	uploads.Use(h.middlewares.APIRateLimits())
	{
		uploads.POST("", h.UploadFiles)
		uploads.GET("/:id", h.GetFile)
		uploads.DELETE("/:id", h.DeleteFile)
	}
}

func (h *UploadHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.ResponseError(c, domain.ErrUploadInvalidContentType.WithWrap(err))
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		common.ResponseError(c, domain.ErrUploadFilesRequired)
		return
	}

	fileWithContents, err := domain.ReadMultipartFiles(fileHeaders, h.maxFileSize)
	if err != nil {
		common.ResponseError(c, err)
		return
	}

	files, err := h.usecase.UploadFiles(c.Request.Context(), common.GetUserFromCtx(c).ID, fileWithContents)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, files, "Files uploaded successfully")
}

func (h *UploadHandler) GetFile(c *gin.Context) {
	file, err := h.usecase.GetFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, file, "File found")
}

func (h *UploadHandler) DeleteFile(c *gin.Context) {
	if err := h.usecase.DeleteFile(c.Request.Context(), common.GetUserFromCtx(c), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}
