package middleware

import (
	"context"
	"strings"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type JwtProvider interface {
	VerifyAccessToken(tokenStr string) (*domain.JwtClaims, error)
}

type SessionRepository interface {
	FindByID(ctx context.Context, sessionID string, option *domain.FindOneOption) (*domain.UserSession, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, userID string, option *domain.FindOneOption) (*domain.User, error)
}

func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticator requires a valid access token whose session is still active
// and whose user is not banned.
func (m *middlewares) Authenticator() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, sessionID, err := m.authenticate(c)
		if err != nil {
			common.ResponseError(c, err)
			return
		}

		c.Set(common.UserContextKey, user)
		c.Set(common.SessionIDContextKey, sessionID)
		c.Request = c.Request.WithContext(log.ContextWithUserID(c.Request.Context(), user.ID))
		c.Next()
	}
}

func (m *middlewares) authenticate(c *gin.Context) (*domain.User, string, error) {
	token, ok := bearerToken(c)
	if !ok {
		return nil, "", domain.ErrInvalidToken.WithReason("missing bearer token")
	}

	claims, err := m.jwtProvider.VerifyAccessToken(token)
	if err != nil {
		return nil, "", err
	}

	ctx := c.Request.Context()
	session, err := m.sessionRepo.FindByID(ctx, claims.Sid, nil)
	switch {
	case common.IsRecordNotFound(err):
		return nil, "", domain.ErrSessionExpired
	case err != nil:
		return nil, "", domain.ErrSessionFindFailed.WithWrap(err)
	case !session.IsActive() || session.UserID != claims.Sub:
		return nil, "", domain.ErrSessionExpired
	}

	user, err := m.userRepo.FindByID(ctx, claims.Sub, &domain.FindOneOption{
		Preloads: []string{common.FieldRoles},
	})
	switch {
	case common.IsRecordNotFound(err):
		return nil, "", domain.ErrUserNotFound
	case err != nil:
		return nil, "", domain.ErrInternalServerError.WithWrap(err)
	case user.IsBanned():
		return nil, "", domain.ErrAccountBanned
	}
	return user, session.ID, nil
}

// RequireAnyRoles must run after Authenticator.
func (m *middlewares) RequireAnyRoles(roleIDs ...domain.RoleID) gin.HandlerFunc {
	required := strings.Join(lo.Map(roleIDs, func(r domain.RoleID, _ int) string { return string(r) }), ", ")
	return func(c *gin.Context) {
		user := common.GetUserFromCtx(c)
		if user == nil {
			common.ResponseError(c, domain.ErrUnauthorized)
			return
		}
		if !user.HasAnyRole(roleIDs...) {
			common.ResponseForbidden(c, "One of these roles is required: "+required)
			return
		}
		c.Next()
	}
}
