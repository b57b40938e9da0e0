package identity

import "time"

// LoginInput carries an external identity assertion (a Google ID token).
type LoginInput struct {
	Assertion string
}

// RefreshInput carries the refresh token to rotate.
type RefreshInput struct {
	RefreshToken string
}

// LogoutInput identifies the session being terminated.
type LogoutInput struct {
	UserID string
}

// SessionUser is the signed-in user as exposed to clients.
type SessionUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// SessionResult is the outcome of a login or refresh.
type SessionResult struct {
	AccessToken           string      `json:"access_token"`
	RefreshToken          string      `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time   `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time   `json:"refresh_token_expires_at"`
	TokenType             string      `json:"token_type"`
	User                  SessionUser `json:"user"`
}
