package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/application/identity"
	"github.com/copystudio/backend/internal/application/syncer"
	"github.com/copystudio/backend/internal/infrastructure/auth"
	"github.com/copystudio/backend/internal/infrastructure/config"
	"github.com/copystudio/backend/internal/interfaces/http/dto"
)

type stubVerifier struct {
	identity *auth.ExternalIdentity
	err      error
}

func (v *stubVerifier) Verify(ctx context.Context, assertion string) (*auth.ExternalIdentity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func newAuthTestRouter(verifier identity.IdentityVerifier, userID string) *gin.Engine {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test",
	})
	sessions := identity.NewSessionService(
		verifier,
		jwtService,
		auth.NewMemoryTokenRevoker(),
		syncer.NewChannelAuthSource(),
		zap.NewNop(),
	)

	r := gin.New()
	r.Use(asUser(userID))
	h := NewAuthHandler(sessions, zap.NewNop())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestAuthHandler_CreateSession(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.ExternalIdentity{
		Subject: "google-123",
		Email:   "dana@example.com",
		Name:    "Dana",
	}}
	r := newAuthTestRouter(verifier, "")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/session",
		`{"id_token":"assertion"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.Equal(t, "Bearer", data["token_type"])
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "google-123", user["id"])
	assert.Equal(t, "dana@example.com", user["email"])
}

func TestAuthHandler_CreateSessionRejectsBadAssertion(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("verification failed")}
	r := newAuthTestRouter(verifier, "")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/session",
		`{"id_token":"garbage"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestAuthHandler_CreateSessionRequiresToken(t *testing.T) {
	r := newAuthTestRouter(&stubVerifier{}, "")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/session", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestAuthHandler_RefreshSession(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.ExternalIdentity{Subject: "google-123", Email: "dana@example.com"}}
	r := newAuthTestRouter(verifier, "")

	_, loginResp := doJSON(t, r, http.MethodPost, "/api/v1/auth/session",
		`{"id_token":"assertion"}`)
	refreshToken := loginResp.Data.(map[string]interface{})["refresh_token"].(string)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"`+refreshToken+`"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["access_token"])
	assert.NotEqual(t, refreshToken, data["refresh_token"])
}

func TestAuthHandler_RefreshRejectsGarbage(t *testing.T) {
	r := newAuthTestRouter(&stubVerifier{}, "")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh",
		`{"refresh_token":"not-a-token"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, resp.Error.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	verifier := &stubVerifier{identity: &auth.ExternalIdentity{Subject: "google-123", Email: "dana@example.com"}}
	r := newAuthTestRouter(verifier, "google-123")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthHandler_LogoutRequiresUser(t *testing.T) {
	r := newAuthTestRouter(&stubVerifier{}, "")

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}
