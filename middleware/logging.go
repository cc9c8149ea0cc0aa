package middleware

import (
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type LoggerConfig struct {
	// SkipPaths is an url path array which logs are not written.
	SkipPaths []string
	// RedactQueryKeys are replaced by "REDACTED" in the logged url.
	RedactQueryKeys []string
	// SlowThreshold raises successful requests slower than this to warn.
	SlowThreshold time.Duration
}

var defaultRedactedKeys = []string{"token", "refresh_token", "password", "api_key"}

// LoggingMiddleware writes one access log line per request, at warn level
// for 4xx and slow requests and error level for 5xx.
func (m *middlewares) LoggingMiddleware(config ...LoggerConfig) gin.HandlerFunc {
	var conf LoggerConfig
	if len(config) > 0 {
		conf = config[0]
	}
	if conf.RedactQueryKeys == nil {
		conf.RedactQueryKeys = defaultRedactedKeys
	}

	skipPaths := lo.Keyify(conf.SkipPaths)
	redacted := lo.Keyify(conf.RedactQueryKeys)

	return func(c *gin.Context) {
		if _, skip := skipPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		statusCode := c.Writer.Status()
		fields := []log.Field{
			log.Method(c.Request.Method),
			log.URL(loggedURL(c.Request.URL, redacted)),
			log.String("route", c.FullPath()),
			log.StatusCode(statusCode),
			log.ResponseTime(elapsed),
			log.String("client_ip", common.GetClientIP(c)),
			log.String("user_agent", c.Request.UserAgent()),
			log.Int("response_size", c.Writer.Size()),
		}
		if user := common.GetUserFromCtx(c); user != nil {
			fields = append(fields, log.UserID(user.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, log.String("errors", c.Errors.String()))
		}

		ctx := c.Request.Context()
		switch {
		case statusCode >= http.StatusInternalServerError:
			m.logger.ErrorContext(ctx, "HTTP Request", fields...)
		case statusCode >= http.StatusBadRequest:
			m.logger.WarnContext(ctx, "HTTP Request", fields...)
		case conf.SlowThreshold > 0 && elapsed > conf.SlowThreshold:
			m.logger.WarnContext(ctx, "Slow HTTP Request", fields...)
		default:
			m.logger.InfoContext(ctx, "HTTP Request", fields...)
		}
	}
}

func loggedURL(u *url.URL, redacted map[string]struct{}) string {
	if u.RawQuery == "" {
		return u.Path
	}
	query := u.Query()
	for key := range query {
		if _, ok := redacted[strings.ToLower(key)]; ok {
			query.Set(key, "REDACTED")
		}
	}
	return u.Path + "?" + query.Encode()
}

// RequestIDMiddleware keeps an incoming X-Request-ID or generates one, and
// exposes it on the response, the gin context and the request context.
func (m *middlewares) RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(common.RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}

		c.Set(common.RequestIDContextKey, requestID)
		c.Header(common.RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(log.ContextWithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// Recovery turns panics into the standard 500 envelope.
func (m *middlewares) Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		m.logger.ErrorContext(c.Request.Context(), "Panic recovered",
			log.String("panic", fmt.Sprint(recovered)),
			log.String("stack", string(debug.Stack())),
		)
		common.ResponseError(c, domain.ErrInternalServerError)
	})
}
