package middleware

import (
	"auction-market/domain"
	"auction-market/pkg/cache"
	"auction-market/pkg/log"

	"github.com/gin-gonic/gin"
)

// Middlewares defines all available middleware methods
type Middlewares interface {
	// Rate limiting middlewares
	RateLimit(config ...RateLimitConfig) gin.HandlerFunc
	AuthRateLimits() gin.HandlerFunc
	APIRateLimits() gin.HandlerFunc

	// Request lifecycle middlewares
	LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc
	RequestIDMiddleware() gin.HandlerFunc
	Recovery() gin.HandlerFunc

	CORS(config ...CORSConfig) gin.HandlerFunc

	// Authentication middlewares
	Authenticator() gin.HandlerFunc
	RequireAnyRoles(roleIDs ...domain.RoleID) gin.HandlerFunc
}

// Dependencies holds all dependencies needed by middlewares
type Dependencies struct {
	Cache       cache.Client
	Logger      log.Logger
	JwtProvider JwtProvider
	SessionRepo SessionRepository
	UserRepo    UserRepository

	// APIRequestsPerMinute bounds APIRateLimits per client
	APIRequestsPerMinute int64
}

func NewMiddlewares(deps Dependencies) Middlewares {
	if deps.APIRequestsPerMinute <= 0 {
		deps.APIRequestsPerMinute = 100
	}
	return &middlewares{
		cache:             deps.Cache,
		logger:            deps.Logger,
		jwtProvider:       deps.JwtProvider,
		sessionRepo:       deps.SessionRepo,
		userRepo:          deps.UserRepo,
		apiRequestsPerMin: deps.APIRequestsPerMinute,
	}
}

type middlewares struct {
	cache             cache.Client
	logger            log.Logger
	jwtProvider       JwtProvider
	sessionRepo       SessionRepository
	userRepo          UserRepository
	apiRequestsPerMin int64
}
