package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copystudio/backend/internal/domain/social"
	"github.com/copystudio/backend/internal/domain/state"
)

func TestProfilesClient_ListByUser(t *testing.T) {
	t.Run("maps wire profiles onto workspace profiles", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/profiles/user/u1", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"success","data":[
				{"id":1,"profile_name":"Default","profile_context":"ctx","is_default":true,"created_at":"2024-01-01"}
			]}`))
		}))
		defer srv.Close()

		c := NewProfilesClient(srv.URL, time.Second, nil)
		profiles, err := c.ListByUser(context.Background(), "u1")
		require.NoError(t, err)

		require.Len(t, profiles, 1)
		assert.Equal(t, state.Profile{
			ID:          "1",
			Name:        "Default",
			Description: "ctx",
			SocialMedia: map[social.Platform]string{},
			CreatedAt:   "2024-01-01",
			UpdatedAt:   "2024-01-01",
		}, profiles[0])
	})

	t.Run("accepts string ids and explicit updated_at", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success","data":[
				{"id":"abc-1","profile_name":"Launch","profile_context":"q3 push","created_at":"2024-02-01","updated_at":"2024-03-01"}
			]}`))
		}))
		defer srv.Close()

		c := NewProfilesClient(srv.URL, time.Second, nil)
		profiles, err := c.ListByUser(context.Background(), "u1")
		require.NoError(t, err)

		require.Len(t, profiles, 1)
		assert.Equal(t, "abc-1", profiles[0].ID)
		assert.Equal(t, "2024-03-01", profiles[0].UpdatedAt)
	})

	t.Run("preserves upstream order", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success","data":[
				{"id":3,"profile_name":"C","created_at":"2024-01-01"},
				{"id":1,"profile_name":"A","created_at":"2024-01-01"},
				{"id":2,"profile_name":"B","created_at":"2024-01-01"}
			]}`))
		}))
		defer srv.Close()

		c := NewProfilesClient(srv.URL, time.Second, nil)
		profiles, err := c.ListByUser(context.Background(), "u1")
		require.NoError(t, err)

		require.Len(t, profiles, 3)
		assert.Equal(t, "3", profiles[0].ID)
		assert.Equal(t, "1", profiles[1].ID)
		assert.Equal(t, "2", profiles[2].ID)
	})

	t.Run("server error maps to ErrRequestFailed with upstream message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":"error","error":"profiles store offline"}`))
		}))
		defer srv.Close()

		c := NewProfilesClient(srv.URL, time.Second, nil)
		_, err := c.ListByUser(context.Background(), "u1")
		require.ErrorIs(t, err, ErrRequestFailed)
		assert.Contains(t, err.Error(), "profiles store offline")
	})

	t.Run("unreachable service maps to ErrServiceUnavailable", func(t *testing.T) {
		c := NewProfilesClient("http://127.0.0.1:1", 200*time.Millisecond, nil)
		_, err := c.ListByUser(context.Background(), "u1")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	})

	t.Run("cancelled context surfaces context error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewProfilesClient(srv.URL, time.Second, nil)
		_, err := c.ListByUser(ctx, "u1")
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("malformed body maps to ErrInvalidResponse", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		c := NewProfilesClient(srv.URL, time.Second, nil)
		_, err := c.ListByUser(context.Background(), "u1")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})
}
