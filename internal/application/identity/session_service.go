// Package identity implements the session lifecycle: exchanging verified
// external identities for gateway token pairs, rotating refresh tokens, and
// terminating sessions. Every transition is published to the auth source so
// the workspace syncer reacts to it.
package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/application/syncer"
	"github.com/copystudio/backend/internal/domain/shared"
	"github.com/copystudio/backend/internal/infrastructure/auth"
)

// IdentityVerifier validates an external identity assertion.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (*auth.ExternalIdentity, error)
}

// AuthPublisher receives authentication state transitions. Publish reports
// whether the transition was accepted; a false return means the consumer is
// not draining and the transition was dropped.
type AuthPublisher interface {
	Publish(st syncer.AuthState) bool
}

// SessionService handles session establishment, refresh and termination.
type SessionService struct {
	verifier IdentityVerifier
	jwt      *auth.JWTService
	revoker  auth.TokenRevoker
	source   AuthPublisher
	logger   *zap.Logger
}

// NewSessionService creates a session service.
func NewSessionService(
	verifier IdentityVerifier,
	jwtService *auth.JWTService,
	revoker auth.TokenRevoker,
	source AuthPublisher,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		verifier: verifier,
		jwt:      jwtService,
		revoker:  revoker,
		source:   source,
		logger:   logger,
	}
}

func (s *SessionService) publish(st syncer.AuthState) {
	if !s.source.Publish(st) {
		s.logger.Warn("Auth state transition dropped, consumer not draining",
			zap.String("user_id", st.UserID))
	}
}

// Login verifies the external assertion and issues a gateway token pair.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*SessionResult, error) {
	s.publish(syncer.AuthState{Loading: true})

	ext, err := s.verifier.Verify(ctx, input.Assertion)
	if err != nil {
		s.logger.Warn("Identity verification failed", zap.Error(err))
		s.publish(syncer.AuthState{Present: false})
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Identity verification failed")
	}

	id := auth.Identity{
		UserID:  ext.Subject,
		Email:   ext.Email,
		Name:    ext.Name,
		Picture: ext.Picture,
	}
	pair, err := s.jwt.GenerateTokenPair(id)
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		s.publish(syncer.AuthState{Present: false})
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to establish session")
	}

	s.publish(syncer.AuthState{
		UserID:      id.UserID,
		Email:       id.Email,
		DisplayName: id.Name,
		PhotoURL:    id.Picture,
		Present:     true,
	})

	s.logger.Info("Session established",
		zap.String("user_id", id.UserID),
		zap.String("email", id.Email))

	return sessionResult(pair, id), nil
}

// Refresh rotates a refresh token into a fresh pair. The used refresh token
// is revoked for its remaining lifetime.
func (s *SessionService) Refresh(ctx context.Context, input RefreshInput) (*SessionResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if revoked, err := s.revoked(ctx, claims); err != nil {
		s.logger.Error("Revocation check failed", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to validate session")
	} else if revoked {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked. Please sign in again")
	}

	id := auth.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}
	pair, err := s.jwt.RefreshTokenPair(input.RefreshToken, id)
	if err != nil {
		return nil, mapTokenError(err)
	}

	if err := s.revoker.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.publish(syncer.AuthState{
		UserID:      id.UserID,
		Email:       id.Email,
		DisplayName: id.Name,
		PhotoURL:    id.Picture,
		Present:     true,
	})

	s.logger.Info("Session refreshed", zap.String("user_id", id.UserID))

	return sessionResult(pair, id), nil
}

// Logout revokes every outstanding token for the user and publishes the
// signed-out state.
func (s *SessionService) Logout(ctx context.Context, input LogoutInput) error {
	if err := s.revoker.RevokeUser(ctx, input.UserID, s.jwt.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke user sessions",
			zap.String("user_id", input.UserID),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to terminate session")
	}

	s.publish(syncer.AuthState{Present: false})

	s.logger.Info("Session terminated", zap.String("user_id", input.UserID))
	return nil
}

func (s *SessionService) revoked(ctx context.Context, claims *auth.Claims) (bool, error) {
	if revoked, err := s.revoker.IsRevoked(ctx, claims.ID); err != nil || revoked {
		return revoked, err
	}
	return s.revoker.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
}

func sessionResult(pair *auth.TokenPair, id auth.Identity) *SessionResult {
	return &SessionResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User: SessionUser{
			ID:      id.UserID,
			Email:   id.Email,
			Name:    id.Name,
			Picture: id.Picture,
		},
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrTokenRevoked):
		return shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked. Please sign in again")
	default:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}
}
