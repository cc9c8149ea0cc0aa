package common

import (
	"net"
	"strings"

	"auction-market/domain"

	"github.com/gin-gonic/gin"
)

// ExtractClientInfo extracts client information from the Gin context
func ExtractClientInfo(c *gin.Context) domain.ClientInfo {
	return domain.ClientInfo{
		UserAgent: c.GetHeader("User-Agent"),
		IPAddress: GetClientIP(c),
	}
}

// GetClientIP gets the real client IP address
func GetClientIP(c *gin.Context) string {
	// X-Forwarded-For can contain multiple IPs, the first one is the client
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		ip, _, _ := strings.Cut(xff, ",")
		ip = strings.TrimSpace(ip)
		if ip != "" && net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xri := c.GetHeader("X-Real-IP"); xri != "" && net.ParseIP(xri) != nil {
		return xri
	}

	remoteIP, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return remoteIP
}

// PopulateClientInfo fills empty client info fields with values from the request.
func PopulateClientInfo(c *gin.Context, info *domain.ClientInfo) {
	extracted := ExtractClientInfo(c)
	if info.IPAddress == "" {
		info.IPAddress = extracted.IPAddress
	}
	if info.UserAgent == "" {
		info.UserAgent = extracted.UserAgent
	}
}

func GetUserFromCtx(c *gin.Context) *domain.User {
	if v, ok := c.Get(UserContextKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

func GetSessionIDFromCtx(c *gin.Context) string {
	return c.GetString(SessionIDContextKey)
}

func GetRequestIDFromCtx(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}
