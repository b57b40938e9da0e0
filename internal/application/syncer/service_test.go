package syncer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copystudio/backend/internal/domain/social"
	"github.com/copystudio/backend/internal/domain/state"
	"github.com/copystudio/backend/internal/infrastructure/broadcast"
	"github.com/copystudio/backend/internal/infrastructure/config"
	"github.com/copystudio/backend/internal/infrastructure/remote"
)

type fakeProfileLister struct {
	mu        sync.Mutex
	calls     int
	items     []state.Profile
	err       error
	failFirst int           // fail this many leading calls with err
	release   chan struct{} // when set, ListByUser blocks until closed or ctx done
}

func (f *fakeProfileLister) ListByUser(ctx context.Context, userID string) ([]state.Profile, error) {
	f.mu.Lock()
	f.calls++
	items, err, release := f.items, f.err, f.release
	if f.failFirst > 0 {
		f.failFirst--
		if err == nil {
			err = errors.New("transient")
		}
	}
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeProfileLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeProjectLister struct {
	mu    sync.Mutex
	calls int
	items []state.Project
	err   error
}

func (f *fakeProjectLister) ListByUser(ctx context.Context, userID string) ([]state.Project, error) {
	f.mu.Lock()
	f.calls++
	items, err := f.items, f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeProjectLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{FetchTimeout: time.Second}
}

func startService(t *testing.T, s *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func signedIn(userID string) AuthState {
	return AuthState{
		UserID:      userID,
		Email:       userID + "@example.com",
		DisplayName: "User " + userID,
		Present:     true,
	}
}

// Publishing into a source nobody drains must not block the caller; once the
// buffer is full the transition is dropped and reported.
func TestChannelAuthSource_PublishDropsWhenFull(t *testing.T) {
	source := NewChannelAuthSource()

	for i := 0; i < authSourceBufferSize; i++ {
		assert.True(t, source.Publish(signedIn("u1")))
	}

	done := make(chan bool, 1)
	go func() {
		done <- source.Publish(signedIn("u1"))
	}()

	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
}

func TestService_SignInFetchesBothSlices(t *testing.T) {
	store := state.NewStore()
	profiles := &fakeProfileLister{items: []state.Profile{{ID: "p1", Name: "Default"}}}
	projects := &fakeProjectLister{items: []state.Project{{ID: "42", Name: "Launch", Status: state.ProjectStatusActive}}}
	source := NewChannelAuthSource()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(AuthState{Loading: true})
	source.Publish(signedIn("u1"))

	require.Eventually(t, func() bool {
		pv := store.ProfilesSnapshot()
		jv := store.ProjectsSnapshot()
		return len(pv.Items) == 1 && len(jv.Items) == 1 && !pv.Loading && !jv.Loading
	}, time.Second, 5*time.Millisecond)

	uv := store.UserSnapshot()
	require.NotNil(t, uv.User)
	assert.Equal(t, "u1", uv.User.ID)
	assert.Equal(t, "u1@example.com", uv.User.Email)
	assert.Equal(t, "User u1", uv.User.Name)
	assert.False(t, uv.Loading)

	assert.Equal(t, "p1", store.ProfilesSnapshot().Items[0].ID)
	assert.Equal(t, "42", store.ProjectsSnapshot().Items[0].ID)
}

func TestService_RepeatedIdenticalSignInFetchesOnce(t *testing.T) {
	store := state.NewStore()
	profiles := &fakeProfileLister{}
	projects := &fakeProjectLister{}
	source := NewChannelAuthSource()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))
	source.Publish(signedIn("u1"))
	source.Publish(signedIn("u1"))

	require.Eventually(t, func() bool {
		return profiles.callCount() >= 1 && projects.callCount() >= 1
	}, time.Second, 5*time.Millisecond)

	// Give the loop time to process the remaining transitions.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, profiles.callCount())
	assert.Equal(t, 1, projects.callCount())
}

func TestService_SignOutClearsUser(t *testing.T) {
	store := state.NewStore()
	source := NewChannelAuthSource()
	svc := NewService(store, &fakeProfileLister{}, &fakeProjectLister{}, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))
	require.Eventually(t, func() bool {
		return store.Authenticated()
	}, time.Second, 5*time.Millisecond)

	source.Publish(AuthState{Present: false})
	require.Eventually(t, func() bool {
		return !store.Authenticated()
	}, time.Second, 5*time.Millisecond)
}

func TestService_FetchFailureKeepsPriorData(t *testing.T) {
	store := state.NewStore()
	store.ReplaceProfiles([]state.Profile{{ID: "old", Name: "Old"}})

	profiles := &fakeProfileLister{err: errors.New("profiles service is down")}
	projects := &fakeProjectLister{err: errors.New("")}
	source := NewChannelAuthSource()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))

	require.Eventually(t, func() bool {
		return store.ProfilesSnapshot().Err != "" && store.ProjectsSnapshot().Err != ""
	}, time.Second, 5*time.Millisecond)

	pv := store.ProfilesSnapshot()
	assert.Equal(t, "profiles service is down", pv.Err)
	assert.False(t, pv.Loading)
	require.Len(t, pv.Items, 1)
	assert.Equal(t, "old", pv.Items[0].ID)

	assert.Equal(t, msgProjectsFailed, store.ProjectsSnapshot().Err)
}

// A failed fetch is never retried: one upstream call per trigger, the error
// surfaces immediately, and only a later explicit refresh fetches again.
func TestService_FailedFetchIsNotRetried(t *testing.T) {
	store := state.NewStore()
	profiles := &fakeProfileLister{
		items:     []state.Profile{{ID: "p1"}},
		failFirst: 1,
	}
	projects := &fakeProjectLister{}
	source := NewChannelAuthSource()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))

	require.Eventually(t, func() bool {
		return store.ProfilesSnapshot().Err != ""
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, profiles.callCount())
	assert.Equal(t, "transient", store.ProfilesSnapshot().Err)

	require.NoError(t, svc.Refresh(context.Background(), "u1"))
	require.Eventually(t, func() bool {
		pv := store.ProfilesSnapshot()
		return len(pv.Items) == 1 && pv.Err == ""
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, profiles.callCount())
}

func TestService_NewSignInSupersedesInFlightFetch(t *testing.T) {
	store := state.NewStore()
	release := make(chan struct{})
	profiles := &fakeProfileLister{
		items:   []state.Profile{{ID: "stale", Name: "Stale"}},
		release: release,
	}
	projects := &fakeProjectLister{}
	source := NewChannelAuthSource()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))
	require.Eventually(t, func() bool {
		return profiles.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Second sign-in supersedes the blocked fetch for u1.
	profiles.mu.Lock()
	profiles.release = nil
	profiles.items = []state.Profile{{ID: "fresh", Name: "Fresh"}}
	profiles.mu.Unlock()

	source.Publish(signedIn("u2"))
	require.Eventually(t, func() bool {
		pv := store.ProfilesSnapshot()
		return len(pv.Items) == 1 && pv.Items[0].ID == "fresh"
	}, time.Second, 5*time.Millisecond)

	// Let the superseded fetch complete; its result must be discarded.
	close(release)
	time.Sleep(50 * time.Millisecond)

	pv := store.ProfilesSnapshot()
	require.Len(t, pv.Items, 1)
	assert.Equal(t, "fresh", pv.Items[0].ID)
}

func TestService_RefreshRefetches(t *testing.T) {
	store := state.NewStore()
	profiles := &fakeProfileLister{}
	projects := &fakeProjectLister{}
	source := NewChannelAuthSource()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))
	require.Eventually(t, func() bool {
		return profiles.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, svc.Refresh(context.Background(), "u1"))
	require.Eventually(t, func() bool {
		return profiles.callCount() == 2 && projects.callCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestService_BroadcastHintTriggersRefresh(t *testing.T) {
	store := state.NewStore()
	profiles := &fakeProfileLister{}
	projects := &fakeProjectLister{}
	source := NewChannelAuthSource()
	bc := broadcast.NewMemoryBroadcaster()
	defer bc.Close()

	svc := NewService(store, profiles, projects, source, testSyncConfig(), nil,
		WithBroadcaster(bc))
	startService(t, svc)

	source.Publish(signedIn("u1"))
	require.Eventually(t, func() bool {
		return profiles.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// Subscription registration is asynchronous, so retry the publish until
	// the hint lands.
	require.Eventually(t, func() bool {
		require.NoError(t, bc.Publish(context.Background(), broadcast.RefreshMessage{UserID: "u1"}))
		return profiles.callCount() >= 2
	}, time.Second, 20*time.Millisecond)

	// Hints for other users are ignored.
	time.Sleep(50 * time.Millisecond)
	before := profiles.callCount()
	require.NoError(t, bc.Publish(context.Background(), broadcast.RefreshMessage{UserID: "someone-else"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, profiles.callCount())
}

// End-to-end: a first sign-in against live upstream stubs lands the mapped
// profile and project data in the store.
func TestService_FirstSignInEndToEnd(t *testing.T) {
	profilesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/profiles/user/u1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":1,"profile_name":"Default","profile_context":"ctx","is_default":true,"created_at":"2024-01-01"}]}`))
	}))
	defer profilesSrv.Close()

	projectsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/user/u1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":7,"name":"Launch","description":"Q1 push","user_id":"u1","created_at":"2024-02-01","updated_at":"2024-02-02"}]}`))
	}))
	defer projectsSrv.Close()

	store := state.NewStore()
	source := NewChannelAuthSource()
	svc := NewService(store,
		remote.NewProfilesClient(profilesSrv.URL, time.Second, nil),
		remote.NewProjectsClient(projectsSrv.URL, time.Second, nil),
		source, testSyncConfig(), nil)
	startService(t, svc)

	source.Publish(signedIn("u1"))

	require.Eventually(t, func() bool {
		return len(store.ProfilesSnapshot().Items) == 1 && len(store.ProjectsSnapshot().Items) == 1
	}, time.Second, 5*time.Millisecond)

	want := state.Profile{
		ID:          "1",
		Name:        "Default",
		Description: "ctx",
		SocialMedia: map[social.Platform]string{},
		CreatedAt:   "2024-01-01",
		UpdatedAt:   "2024-01-01",
	}
	assert.Equal(t, want, store.ProfilesSnapshot().Items[0])

	proj := store.ProjectsSnapshot().Items[0]
	assert.Equal(t, "7", proj.ID)
	assert.Equal(t, "Launch", proj.Name)
	assert.Equal(t, state.ProjectStatusActive, proj.Status)
	assert.Equal(t, "2024-02-02", proj.UpdatedAt)
}
