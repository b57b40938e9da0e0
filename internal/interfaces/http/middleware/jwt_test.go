package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copystudio/backend/internal/infrastructure/auth"
	"github.com/copystudio/backend/internal/infrastructure/config"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test",
	})
}

func newAuthedRouter(cfg JWTMiddlewareConfig) *gin.Engine {
	r := gin.New()
	r.Use(JWTAuthMiddlewareWithConfig(cfg))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c), "email": GetJWTEmail(c)})
	})
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func bearerRequest(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestJWTAuth_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(auth.Identity{UserID: "u1", Email: "u@example.com"})
	require.NoError(t, err)

	r := newAuthedRouter(DefaultJWTConfig(svc))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, bearerRequest("/protected", pair.AccessToken))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	assert.Contains(t, w.Body.String(), `"email":"u@example.com"`)
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	r := newAuthedRouter(DefaultJWTConfig(newTestJWTService()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, bearerRequest("/protected", ""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_RefreshTokenRejected(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(auth.Identity{UserID: "u1"})
	require.NoError(t, err)

	r := newAuthedRouter(DefaultJWTConfig(svc))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, bearerRequest("/protected", pair.RefreshToken))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuth_SkipPaths(t *testing.T) {
	r := newAuthedRouter(DefaultJWTConfig(newTestJWTService()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(auth.Identity{UserID: "u1"})
	require.NoError(t, err)

	revoker := auth.NewMemoryTokenRevoker()
	require.NoError(t, revoker.RevokeUser(context.Background(), "u1", time.Hour))

	cfg := DefaultJWTConfig(svc)
	cfg.Revoker = revoker

	r := newAuthedRouter(cfg)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, bearerRequest("/protected", pair.AccessToken))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")
}
