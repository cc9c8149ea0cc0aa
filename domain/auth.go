package domain

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

/****************************
*        Auth errors        *
****************************/
var (
	ErrInvalidCredentials = &DetailedError{
		IDField:         "INVALID_CREDENTIALS",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid email or password",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrInvalidToken = &DetailedError{
		IDField:         "INVALID_TOKEN",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Invalid or expired token",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrSessionExpired = &DetailedError{
		IDField:         "SESSION_EXPIRED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Session has expired",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrSessionFindFailed = &DetailedError{
		IDField:         "SESSION_FIND_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to find session",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrEmailNotVerified = &DetailedError{
		IDField:         "EMAIL_NOT_VERIFIED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "Email address is not verified",
		StatusCodeField: http.StatusForbidden,
	}
	ErrAccountBanned = &DetailedError{
		IDField:         "ACCOUNT_BANNED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "Account has been banned",
		StatusCodeField: http.StatusForbidden,
	}
	ErrTokenExpired = &DetailedError{
		IDField:         "TOKEN_EXPIRED",
		StatusDescField: http.StatusText(http.StatusUnauthorized),
		ErrorField:      "Token has expired",
		StatusCodeField: http.StatusUnauthorized,
	}
	ErrVerificationTokenInvalid = &DetailedError{
		IDField:         "VERIFICATION_TOKEN_INVALID",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Verification link is invalid or has expired",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrEmailAlreadyVerified = &DetailedError{
		IDField:         "EMAIL_ALREADY_VERIFIED",
		StatusDescField: http.StatusText(http.StatusConflict),
		ErrorField:      "Email address is already verified",
		StatusCodeField: http.StatusConflict,
	}
	ErrCannotCreateSession = &DetailedError{
		IDField:         "CANNOT_CREATE_SESSION",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to create session",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*       Auth entities and types       *
***************************************/

// JwtClaims of an access token. Sid ties the token to a UserSession so
// logging out revokes it before expiry.
type JwtClaims struct {
	Sub string `json:"sub"`
	Sid string `json:"sid"`
	jwt.RegisteredClaims
}

type UserSession struct {
	SQLModel
	UserID         string `json:"user_id" gorm:"type:varchar(36);not null;index"`
	RefreshToken   string `json:"-" gorm:"type:varchar(128);uniqueIndex"`
	IPAddress      string `json:"ip_address" gorm:"type:varchar(64)"`
	UserAgent      string `json:"user_agent" gorm:"type:text"`
	Active         bool   `json:"active" gorm:"default:true"`
	ExpiresAt      int64  `json:"expires_at"`
	LastActivityAt int64  `json:"last_activity_at"`
}

// IsActive reports whether the session can still authenticate. A zero
// ExpiresAt never expires.
func (s *UserSession) IsActive() bool {
	return s.Active && (s.ExpiresAt == 0 || s.ExpiresAt > time.Now().UnixMilli())
}

// UserSessionFilter matches sessions; RefreshToken is compared against the
// stored value, which makes rotation a compare-and-set.
type UserSessionFilter struct {
	ID           *string
	UserID       *string
	RefreshToken *string
	Active       *bool
	ExpiresAfter *int64
}

/*************************************
*  Auth usecase interfaces and types *
**************************************/
type AuthUsecase interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)

	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error)

	SendVerificationEmail(ctx context.Context, req *SendVerificationEmailRequest) error
	VerifyEmail(ctx context.Context, req *VerifyEmailRequest) (*User, error)
}

type ClientInfo struct {
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type RegisterRequest struct {
	ClientInfo
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"required,not_blank,max=50"`
	LastName  string `json:"last_name" binding:"required,not_blank,max=50"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,phone_number"`
}

type LoginRequest struct {
	ClientInfo
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	ClientInfo
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required,uuid"`
}

type SendVerificationEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}
