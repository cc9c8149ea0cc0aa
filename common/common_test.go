package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"auction-market/domain"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jwtConfig struct{}

func (jwtConfig) AccessTokenExpiresIn() time.Duration  { return 15 * time.Minute }
func (jwtConfig) AccessTokenSecret() string            { return "test-secret" }
func (jwtConfig) RefreshTokenExpiresIn() time.Duration { return 24 * time.Hour }
func (jwtConfig) TokenIssuer() string                  { return "auction-market" }

func TestJWTProvider_RoundTrip(t *testing.T) {
	p := NewJWTProvider(jwtConfig{})

	token, expiresAt, err := p.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := p.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "session-1", claims.Sid)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTProvider_RejectsExpiredToken(t *testing.T) {
	p := NewJWTProvider(jwtConfig{})
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := p.GenerateAccessToken("user-1", "session-1")
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.VerifyAccessToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestJWTProvider_RefreshTokenIsOpaque(t *testing.T) {
	p := NewJWTProvider(jwtConfig{})
	a, _, err := p.GenerateRefreshToken()
	require.NoError(t, err)
	b, _, err := p.GenerateRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	_, err = p.VerifyAccessToken(a)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hashed, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.True(t, h.Compare(hashed, "correct-horse"))
	assert.False(t, h.Compare(hashed, "battery-staple"))
}

func TestIsDetailError(t *testing.T) {
	wrapped := errors.Wrap(domain.ErrBidTooLow.WithReason("min 10.00"), "place bid")
	de, ok := IsDetailError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "BID_TOO_LOW", de.IDField)

	_, ok = IsDetailError(errors.New("plain"))
	assert.False(t, ok)
}

func TestResponseError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"detailed", domain.ErrBidConflict, http.StatusConflict, "BID_CONFLICT"},
		{"wrapped detailed", errors.Wrap(domain.ErrProductNotFound, "lookup"), http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(RequestIDContextKey, "rid-1")

			ResponseError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ResponseT[map[string]any]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, "rid-1", body.RequestID)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "10.0.0.9:5555"

	assert.Equal(t, "10.0.0.9", GetClientIP(c))

	c.Request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", GetClientIP(c))

	info := domain.ClientInfo{UserAgent: "custom"}
	PopulateClientInfo(c, &info)
	assert.Equal(t, "203.0.113.7", info.IPAddress)
	assert.Equal(t, "custom", info.UserAgent)
}

func TestJoinURLPath(t *testing.T) {
	assert.Equal(t, "https://a.io/v1/files/x.png", JoinURLPath("https://a.io/", "/v1/", "", "files/x.png"))
	assert.Equal(t, "https://a.io", JoinURLPath("https://a.io/"))
	assert.Equal(t, "https://a.io/verify?token=abc", WithQuery("https://a.io/verify", map[string]string{"token": "abc"}))
}
