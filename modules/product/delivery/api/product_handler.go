package api

import (
	"strings"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	usecase     domain.ProductUsecase
	middlewares middleware.Middlewares
}

func NewProductHandler(usecase domain.ProductUsecase, middlewares middleware.Middlewares) *ProductHandler {
	return &ProductHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.Use(h.middlewares.APIRateLimits())

	products.GET("", h.List)
	products.GET("/search", h.Search)
	products.GET("/:id", h.GetByID)

	protected := products.Group("")
	protected.Use(h.middlewares.Authenticator())
	{
		protected.POST("", h.Create)
		protected.PATCH("/:id", h.Update)
		protected.DELETE("/:id", h.Delete)
		protected.POST("/:id/images", h.AttachImages)
	}
}

func (h *ProductHandler) List(c *gin.Context) {
	var query domain.ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	h.list(c, &query)
}

func (h *ProductHandler) Search(c *gin.Context) {
	var query domain.ProductListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	if strings.TrimSpace(query.Search) == "" {
		common.ResponseBadRequest(c, "q is required")
		return
	}
	h.list(c, &query)
}

func (h *ProductHandler) list(c *gin.Context, query *domain.ProductListQuery) {
	result, err := h.usecase.List(c.Request.Context(), query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Products found")
}

func (h *ProductHandler) GetByID(c *gin.Context) {
	product, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, product, "Product found")
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req domain.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	product, err := h.usecase.Create(c.Request.Context(), common.GetUserFromCtx(c), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, product, "Product created successfully")
}

func (h *ProductHandler) Update(c *gin.Context) {
	var req domain.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	product, err := h.usecase.Update(c.Request.Context(), common.GetUserFromCtx(c), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, product, "Product updated successfully")
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.usecase.Delete(c.Request.Context(), common.GetUserFromCtx(c), c.Param("id")); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}

func (h *ProductHandler) AttachImages(c *gin.Context) {
	var req domain.ProductImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	product, err := h.usecase.AttachImages(c.Request.Context(), common.GetUserFromCtx(c), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, product, "Product images updated")
}
