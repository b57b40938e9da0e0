package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copystudio/backend/internal/infrastructure/config"
)

func newTestVerifier(t *testing.T, clientID string, handler http.HandlerFunc) *GoogleVerifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGoogleVerifier(config.GoogleConfig{
		ClientID:     clientID,
		TokenInfoURL: srv.URL,
		Timeout:      time.Second,
	}, nil)
}

func TestGoogleVerifier_Verify(t *testing.T) {
	v := newTestVerifier(t, "my-client", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("id_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"aud":"my-client","sub":"google-123","email":"u@example.com","name":"User One","picture":"https://img.example.com/u.png"}`))
	})

	id, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, &ExternalIdentity{
		Subject: "google-123",
		Email:   "u@example.com",
		Name:    "User One",
		Picture: "https://img.example.com/u.png",
	}, id)
}

func TestGoogleVerifier_RejectsAudienceMismatch(t *testing.T) {
	v := newTestVerifier(t, "my-client", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"aud":"someone-else","sub":"google-123"}`))
	})

	_, err := v.Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestGoogleVerifier_RejectsBadToken(t *testing.T) {
	v := newTestVerifier(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
	})

	_, err := v.Verify(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGoogleVerifier_RejectsEmptyToken(t *testing.T) {
	v := NewGoogleVerifier(config.GoogleConfig{TokenInfoURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
