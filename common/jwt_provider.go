package common

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"auction-market/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JwtProviderConfig interface {
	AccessTokenExpiresIn() time.Duration
	AccessTokenSecret() string
	RefreshTokenExpiresIn() time.Duration
	TokenIssuer() string
}

type JWTProvider struct {
	cfg JwtProviderConfig
	now func() time.Time
}

func NewJWTProvider(cfg JwtProviderConfig) *JWTProvider {
	return &JWTProvider{cfg: cfg, now: time.Now}
}

// GenerateAccessToken signs an HS256 token bound to the session.
func (j *JWTProvider) GenerateAccessToken(userID, sessionID string) (string, time.Time, error) {
	issuedAt := j.now()
	expiresAt := issuedAt.Add(j.cfg.AccessTokenExpiresIn())
	claims := domain.JwtClaims{
		Sub: userID,
		Sid: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.cfg.TokenIssuer(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.cfg.AccessTokenSecret()))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// GenerateRefreshToken returns an opaque random token and its expiry.
// Refresh tokens are looked up in the session table, never parsed.
func (j *JWTProvider) GenerateRefreshToken() (string, time.Time, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(b), j.now().Add(j.cfg.RefreshTokenExpiresIn()), nil
}

func (j *JWTProvider) VerifyAccessToken(tokenStr string) (*domain.JwtClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &domain.JwtClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(j.cfg.AccessTokenSecret()), nil
	},
		jwt.WithIssuer(j.cfg.TokenIssuer()),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired.WithWrap(err)
		}
		return nil, domain.ErrInvalidToken.WithWrap(err)
	}
	claims, ok := token.Claims.(*domain.JwtClaims)
	if !ok || !token.Valid || claims.Sub == "" || claims.Sid == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
