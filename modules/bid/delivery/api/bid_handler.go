package api

import (
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"

	"github.com/gin-gonic/gin"
)

type BidHandler struct {
	usecase     domain.BidUsecase
	middlewares middleware.Middlewares
}

func NewBidHandler(usecase domain.BidUsecase, middlewares middleware.Middlewares) *BidHandler {
	return &BidHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *BidHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bids := rg.Group("/products/:id/bids")
	bids.Use(h.middlewares.APIRateLimits())

	bids.GET("", h.ListByProduct)
	bids.GET("/highest", h.Highest)
	bids.POST("",
		h.middlewares.Authenticator(),
		h.middlewares.RateLimit(middleware.RateLimitConfig{
			WindowSize:   time.Minute,
			MaxRequests:  20,
			KeyPrefix:    "rate_limit:bid:",
			KeyGenerator: middleware.UserKeyGenerator,
			Description:  "Too many bids. Please slow down.",
		}),
		h.PlaceBid,
	)

	mine := rg.Group("/users/me/bids")
	mine.Use(h.middlewares.Authenticator())
	mine.Use(h.middlewares.APIRateLimits())
	mine.GET("", h.ListMine)
}

func (h *BidHandler) PlaceBid(c *gin.Context) {
	var req domain.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	bid, err := h.usecase.PlaceBid(c.Request.Context(), common.GetUserFromCtx(c), c.Param("id"), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseCreated(c, bid, "Bid placed successfully")
}

func (h *BidHandler) ListByProduct(c *gin.Context) {
	var query domain.BidListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	result, err := h.usecase.ListByProduct(c.Request.Context(), c.Param("id"), &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Bids found")
}

func (h *BidHandler) Highest(c *gin.Context) {
	bid, err := h.usecase.HighestBid(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, bid, "Highest bid found")
}

func (h *BidHandler) ListMine(c *gin.Context) {
	var query domain.BidListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.ResponseBindError(c, err)
		return
	}

	result, err := h.usecase.ListByBidder(c.Request.Context(), common.GetUserFromCtx(c).ID, &query)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, result, "Bids found")
}
