package api

import (
	"context"
	"net/http"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/middleware"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	usecase     domain.AuthUsecase
	middlewares middleware.Middlewares
}

func NewAuthHandler(usecase domain.AuthUsecase, middlewares middleware.Middlewares) *AuthHandler {
	return &AuthHandler{
		usecase:     usecase,
		middlewares: middlewares,
	}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.Use(h.middlewares.AuthRateLimits())

	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.POST("/refresh-token", h.RefreshToken)
	auth.POST("/verify-email", h.VerifyEmail)

	// Every call may send an email, so it gets its own hourly budget
	auth.POST("/send-verification-email",
		h.middlewares.RateLimit(middleware.RateLimitConfig{
			WindowSize:  time.Hour,
			MaxRequests: 5,
			KeyPrefix:   "rate_limit:verify_email:",
			Description: "Too many verification emails requested, please try again later",
		}),
		h.SendVerificationEmail,
	)

	auth.POST("/logout", h.middlewares.Authenticator(), h.Logout)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	h.issueSession(c, &req, &req.ClientInfo, http.StatusCreated,
		"Account created, check your inbox to verify your email",
		func(ctx context.Context) (*domain.AuthResponse, error) { return h.usecase.Register(ctx, &req) },
	)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	h.issueSession(c, &req, &req.ClientInfo, http.StatusOK, "Signed in",
		func(ctx context.Context) (*domain.AuthResponse, error) { return h.usecase.Login(ctx, &req) },
	)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req domain.RefreshTokenRequest
	h.issueSession(c, &req, &req.ClientInfo, http.StatusOK, "Token refreshed",
		func(ctx context.Context) (*domain.AuthResponse, error) { return h.usecase.RefreshToken(ctx, &req) },
	)
}

// issueSession handles the endpoints that hand out a token pair. Token
// responses must never be cached by intermediaries.
func (h *AuthHandler) issueSession(
	c *gin.Context,
	req any,
	info *domain.ClientInfo,
	status int,
	desc string,
	issue func(ctx context.Context) (*domain.AuthResponse, error),
) {
	if err := c.ShouldBindJSON(req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	common.PopulateClientInfo(c, info)

	resp, err := issue(c.Request.Context())
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	common.Response(c, status, "SUCCESS", resp, desc)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := common.GetSessionIDFromCtx(c)
	if sessionID == "" {
		common.ResponseError(c, domain.ErrUnauthorized)
		return
	}
	if err := h.usecase.Logout(c.Request.Context(), sessionID); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseNoContent(c)
}

// SendVerificationEmail always answers the same way so callers cannot probe
// which addresses are registered.
func (h *AuthHandler) SendVerificationEmail(c *gin.Context) {
	var req domain.SendVerificationEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	if err := h.usecase.SendVerificationEmail(c.Request.Context(), &req); err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, gin.H{"email": req.Email}, "If the address belongs to an unverified account, a verification email is on its way")
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req domain.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ResponseBindError(c, err)
		return
	}
	user, err := h.usecase.VerifyEmail(c.Request.Context(), &req)
	if err != nil {
		common.ResponseError(c, err)
		return
	}
	common.ResponseOK(c, user, "Email verified")
}
