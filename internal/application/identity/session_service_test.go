package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copystudio/backend/internal/application/syncer"
	"github.com/copystudio/backend/internal/domain/shared"
	"github.com/copystudio/backend/internal/infrastructure/auth"
	"github.com/copystudio/backend/internal/infrastructure/config"
)

type fakeVerifier struct {
	identity *auth.ExternalIdentity
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*auth.ExternalIdentity, error) {
	return f.identity, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	states []syncer.AuthState
}

func (p *recordingPublisher) Publish(st syncer.AuthState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, st)
	return true
}

func (p *recordingPublisher) all() []syncer.AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]syncer.AuthState(nil), p.states...)
}

func newTestSessionService(verifier IdentityVerifier) (*SessionService, *recordingPublisher) {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-0123456789abcdef",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "test",
	})
	publisher := &recordingPublisher{}
	svc := NewSessionService(verifier, jwtService, auth.NewMemoryTokenRevoker(), publisher, nil)
	return svc, publisher
}

func googleUser() *auth.ExternalIdentity {
	return &auth.ExternalIdentity{
		Subject: "google-123",
		Email:   "u@example.com",
		Name:    "User One",
		Picture: "https://img.example.com/u.png",
	}
}

func TestSessionService_Login(t *testing.T) {
	svc, publisher := newTestSessionService(&fakeVerifier{identity: googleUser()})

	result, err := svc.Login(context.Background(), LoginInput{Assertion: "id-token"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.AccessToken)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, SessionUser{
		ID:      "google-123",
		Email:   "u@example.com",
		Name:    "User One",
		Picture: "https://img.example.com/u.png",
	}, result.User)

	states := publisher.all()
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.Equal(t, syncer.AuthState{
		UserID:      "google-123",
		Email:       "u@example.com",
		DisplayName: "User One",
		PhotoURL:    "https://img.example.com/u.png",
		Present:     true,
	}, states[1])
}

func TestSessionService_LoginRejectsFailedVerification(t *testing.T) {
	svc, publisher := newTestSessionService(&fakeVerifier{err: errors.New("bad token")})

	_, err := svc.Login(context.Background(), LoginInput{Assertion: "garbage"})
	require.Error(t, err)

	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_CREDENTIALS", derr.Code)

	states := publisher.all()
	require.Len(t, states, 2)
	assert.True(t, states[0].Loading)
	assert.False(t, states[1].Present)
}

func TestSessionService_RefreshRotatesTokens(t *testing.T) {
	svc, publisher := newTestSessionService(&fakeVerifier{identity: googleUser()})
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginInput{Assertion: "id-token"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, RefreshInput{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, login.User, refreshed.User)

	// The used refresh token is revoked and cannot be replayed.
	_, err = svc.Refresh(ctx, RefreshInput{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "TOKEN_REVOKED", derr.Code)

	states := publisher.all()
	last := states[len(states)-1]
	assert.True(t, last.Present)
	assert.Equal(t, "google-123", last.UserID)
}

func TestSessionService_RefreshRejectsGarbage(t *testing.T) {
	svc, _ := newTestSessionService(&fakeVerifier{identity: googleUser()})

	_, err := svc.Refresh(context.Background(), RefreshInput{RefreshToken: "not-a-token"})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "TOKEN_INVALID", derr.Code)
}

func TestSessionService_LogoutRevokesAndPublishesSignOut(t *testing.T) {
	svc, publisher := newTestSessionService(&fakeVerifier{identity: googleUser()})
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginInput{Assertion: "id-token"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, LogoutInput{UserID: "google-123"}))

	// Tokens issued before logout no longer refresh.
	_, err = svc.Refresh(ctx, RefreshInput{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "TOKEN_REVOKED", derr.Code)

	states := publisher.all()
	last := states[len(states)-1]
	assert.False(t, last.Present)
	assert.False(t, last.Loading)
}
