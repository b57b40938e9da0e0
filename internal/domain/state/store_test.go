package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProfiles() []Profile {
	return []Profile{
		{ID: "p1", Name: "Default", Description: "general audience"},
		{ID: "p2", Name: "Launch", Description: "product launch"},
		{ID: "p3", Name: "Holiday", Description: "seasonal push"},
	}
}

func seedProjects() []Project {
	return []Project{
		{ID: "j1", Name: "Spring campaign", ProfileID: "p1", Status: ProjectStatusActive},
		{ID: "j2", Name: "Newsletter", ProfileID: "p2", Status: ProjectStatusDraft},
		{ID: "j3", Name: "Rebrand", ProfileID: "p1", Status: ProjectStatusActive},
	}
}

func TestStore_SetUser(t *testing.T) {
	s := NewStore()

	assert.False(t, s.Authenticated())

	s.SetUserLoading(true)
	assert.True(t, s.UserSnapshot().Loading)

	s.SetUser(&User{ID: "u1", Email: "kai@example.com", Name: "Kai"})
	view := s.UserSnapshot()
	require.NotNil(t, view.User)
	assert.Equal(t, "u1", view.User.ID)
	assert.False(t, view.Loading, "setting the user clears loading")
	assert.Empty(t, view.Err)
	assert.True(t, s.Authenticated())

	s.SetUser(nil)
	assert.Nil(t, s.UserSnapshot().User)
	assert.False(t, s.Authenticated())
}

func TestStore_UserSnapshotIsCopy(t *testing.T) {
	s := NewStore()
	s.SetUser(&User{ID: "u1", Name: "Kai"})

	view := s.UserSnapshot()
	view.User.Name = "mutated"

	assert.Equal(t, "Kai", s.UserSnapshot().User.Name)
}

func TestStore_ReplaceProfilesClearsLoadingAndError(t *testing.T) {
	s := NewStore()

	s.SetProfilesLoading(true)
	s.SetProfilesError("upstream unreachable")

	s.ReplaceProfiles(seedProfiles())

	view := s.ProfilesSnapshot()
	assert.Len(t, view.Items, 3)
	assert.False(t, view.Loading)
	assert.Empty(t, view.Err)
}

func TestStore_ErrorKeepsLastGoodData(t *testing.T) {
	s := NewStore()
	s.ReplaceProjects(seedProjects())

	s.SetProjectsError("service timed out")

	view := s.ProjectsSnapshot()
	assert.Equal(t, "service timed out", view.Err)
	assert.Len(t, view.Items, 3, "error must not discard previously loaded items")
	assert.False(t, view.Loading)
}

func TestStore_ReplacePreservesOrder(t *testing.T) {
	s := NewStore()
	s.ReplaceProfiles(seedProfiles())

	view := s.ProfilesSnapshot()
	require.Len(t, view.Items, 3)
	assert.Equal(t, "p1", view.Items[0].ID)
	assert.Equal(t, "p2", view.Items[1].ID)
	assert.Equal(t, "p3", view.Items[2].ID)
}

func TestStore_SnapshotStableBetweenMutations(t *testing.T) {
	s := NewStore()
	s.ReplaceProjects(seedProjects())

	first := s.ProjectsSnapshot()
	second := s.ProjectsSnapshot()
	require.NotEmpty(t, first.Items)
	assert.Equal(t, &first.Items[0], &second.Items[0], "reads between mutations share the memoized slice")

	s.AddProject(Project{ID: "j4", Name: "Webinar", Status: ProjectStatusDraft})
	third := s.ProjectsSnapshot()
	assert.Len(t, third.Items, 4)
	assert.NotSame(t, &first.Items[0], &third.Items[0], "mutation invalidates the memo")
}

func TestStore_ProjectsByStatusAndProfile(t *testing.T) {
	s := NewStore()
	s.ReplaceProjects(seedProjects())

	active := s.ProjectsByStatus(ProjectStatusActive)
	require.Len(t, active, 2)
	assert.Equal(t, "j1", active[0].ID)
	assert.Equal(t, "j3", active[1].ID)

	byProfile := s.ProjectsByProfile("p1")
	require.Len(t, byProfile, 2)
	assert.Equal(t, "j1", byProfile[0].ID)

	assert.Empty(t, s.ProjectsByStatus(ProjectStatusArchived))
	assert.Empty(t, s.ProjectsByProfile("missing"))
}

func TestStore_ProfileByID(t *testing.T) {
	s := NewStore()
	s.ReplaceProfiles(seedProfiles())

	p, ok := s.ProfileByID("p2")
	require.True(t, ok)
	assert.Equal(t, "Launch", p.Name)

	_, ok = s.ProfileByID("missing")
	assert.False(t, ok)
}

func TestStore_CurrentSelection(t *testing.T) {
	s := NewStore()
	s.ReplaceProfiles(seedProfiles())

	s.SetCurrentProfile("p2")
	view := s.ProfilesSnapshot()
	require.NotNil(t, view.Current)
	assert.Equal(t, "p2", view.Current.ID)

	// Unknown IDs leave the selection untouched
	s.SetCurrentProfile("bogus")
	assert.Equal(t, "p2", s.ProfilesSnapshot().Current.ID)

	s.SetCurrentProfile("")
	assert.Nil(t, s.ProfilesSnapshot().Current)
}

func TestStore_ReplaceReconcilesCurrent(t *testing.T) {
	s := NewStore()
	s.ReplaceProjects(seedProjects())
	s.SetCurrentProject("j2")

	// j2 survives the replace with updated fields
	s.ReplaceProjects([]Project{
		{ID: "j2", Name: "Newsletter v2", Status: ProjectStatusActive},
	})
	view := s.ProjectsSnapshot()
	require.NotNil(t, view.Current)
	assert.Equal(t, "Newsletter v2", view.Current.Name)

	// j2 gone entirely: selection is cleared
	s.ReplaceProjects(nil)
	assert.Nil(t, s.ProjectsSnapshot().Current)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s := NewStore()
	s.ReplaceProjects(seedProjects())
	s.SetCurrentProject("j1")

	s.UpdateProject(Project{ID: "j1", Name: "Spring campaign v2", Status: ProjectStatusCompleted})
	p, ok := s.ProjectByID("j1")
	require.True(t, ok)
	assert.Equal(t, ProjectStatusCompleted, p.Status)
	assert.Equal(t, "Spring campaign v2", s.ProjectsSnapshot().Current.Name)

	s.DeleteProject("j1")
	_, ok = s.ProjectByID("j1")
	assert.False(t, ok)
	assert.Nil(t, s.ProjectsSnapshot().Current, "deleting the selected project clears the selection")
	assert.Len(t, s.ProjectsSnapshot().Items, 2)
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.ReplaceProfiles(seedProfiles())
	change := <-ch
	assert.Equal(t, SliceProfiles, change.Slice)
	assert.Equal(t, uint64(1), change.Version)

	s.SetUser(&User{ID: "u1"})
	change = <-ch
	assert.Equal(t, SliceUser, change.Slice)
}

func TestStore_SubscribeCancelStopsDelivery(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	cancel()

	s.SetUserLoading(true)

	_, open := <-ch
	assert.False(t, open, "cancelled subscription channel is closed")

	// Cancelling twice is safe
	cancel()
}

func TestStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	s := NewStore()
	_, cancel := s.Subscribe()
	defer cancel()

	// Never drained; mutations past the buffer are dropped, not blocked
	for i := 0; i < subscriberBufferSize*2; i++ {
		s.SetProjectsLoading(true)
	}

	assert.Equal(t, uint64(subscriberBufferSize*2), s.ProjectsSnapshot().Version)
}
