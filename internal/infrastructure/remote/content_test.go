package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentClient_ListByProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/content/project/p1", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":[
			{"id":1,"project_id":"p1","title":"Hero copy","body":"Buy now","channel":"email","created_at":"2024-01-01","updated_at":"2024-01-02"}
		]}`))
	}))
	defer srv.Close()

	c := NewContentClient(srv.URL, time.Second, nil)
	pieces, err := c.ListByProject(context.Background(), "p1")
	require.NoError(t, err)

	require.Len(t, pieces, 1)
	assert.Equal(t, "1", pieces[0].ID)
	assert.Equal(t, "Hero copy", pieces[0].Title)
	assert.Equal(t, "email", pieces[0].Channel)
}

func TestContentClient_CreateUpdateDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/content":
			w.Write([]byte(`{"status":"success","data":{"id":7,"project_id":"p1","title":"New","body":"text","created_at":"2024-05-01","updated_at":""}}`))
		case r.Method == http.MethodPut && r.URL.Path == "/content/7":
			w.Write([]byte(`{"status":"success","data":{"id":7,"project_id":"p1","title":"Edited","body":"text","created_at":"2024-05-01","updated_at":"2024-05-02"}}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/content/7":
			w.Write([]byte(`{"status":"success"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewContentClient(srv.URL, time.Second, nil)
	ctx := context.Background()

	created, err := c.Create(ctx, CreateContentInput{ProjectID: "p1", Title: "New", Body: "text"})
	require.NoError(t, err)
	assert.Equal(t, "7", created.ID)
	assert.Equal(t, "2024-05-01", created.UpdatedAt, "missing updated_at falls back to created_at")

	updated, err := c.Update(ctx, "7", UpdateContentInput{Title: "Edited", Body: "text"})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)

	assert.NoError(t, c.Delete(ctx, "7"))
}
