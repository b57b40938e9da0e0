package state

// projectMemo caches derived views of the project slice, invalidated on
// version change like profileMemo.
type projectMemo struct {
	version   uint64
	valid     bool
	all       []Project
	byID      map[string]*Project
	byStatus  map[ProjectStatus][]Project
	byProfile map[string][]Project
}

// ProjectsView is a consistent snapshot of the projects slice
type ProjectsView struct {
	Items   []Project
	Current *Project
	Loading bool
	Err     string
	Version uint64
}

// SetProjectsLoading sets the projects slice loading flag
func (s *Store) SetProjectsLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.loading = loading
	s.projects.version++
	s.notify(SliceProjects, s.projects.version)
}

// SetProjectsError records an error on the projects slice, keeping the
// last good items in place.
func (s *Store) SetProjectsError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.err = msg
	s.projects.loading = false
	s.projects.version++
	s.notify(SliceProjects, s.projects.version)
}

// ReplaceProjects swaps the entire project collection, clearing loading
// and error in the same transition. Input order is preserved.
func (s *Store) ReplaceProjects(items []Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Project, len(items))
	copy(copied, items)
	s.projects.items = copied
	s.projects.loading = false
	s.projects.err = ""
	s.reconcileCurrentProject()
	s.projects.version++
	s.notify(SliceProjects, s.projects.version)
}

// AddProject appends a project to the collection
func (s *Store) AddProject(p Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects.items = append(s.projects.items, p)
	s.projects.version++
	s.notify(SliceProjects, s.projects.version)
}

// UpdateProject replaces the project with a matching ID in place. Unknown
// IDs are ignored.
func (s *Store) UpdateProject(p Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects.items {
		if s.projects.items[i].ID == p.ID {
			s.projects.items[i] = p
			if s.projects.current != nil && s.projects.current.ID == p.ID {
				copied := p
				s.projects.current = &copied
			}
			s.projects.version++
			s.notify(SliceProjects, s.projects.version)
			return
		}
	}
}

// DeleteProject removes the project with the given ID. If it was the
// current selection, the selection is cleared.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects.items {
		if s.projects.items[i].ID == id {
			s.projects.items = append(s.projects.items[:i], s.projects.items[i+1:]...)
			if s.projects.current != nil && s.projects.current.ID == id {
				s.projects.current = nil
			}
			s.projects.version++
			s.notify(SliceProjects, s.projects.version)
			return
		}
	}
}

// SetCurrentProject selects a project by ID, or clears the selection when
// id is empty. Selecting an unknown ID is a no-op.
func (s *Store) SetCurrentProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.projects.current = nil
		s.projects.version++
		s.notify(SliceProjects, s.projects.version)
		return
	}
	for i := range s.projects.items {
		if s.projects.items[i].ID == id {
			copied := s.projects.items[i]
			s.projects.current = &copied
			s.projects.version++
			s.notify(SliceProjects, s.projects.version)
			return
		}
	}
}

func (s *Store) reconcileCurrentProject() {
	if s.projects.current == nil {
		return
	}
	for i := range s.projects.items {
		if s.projects.items[i].ID == s.projects.current.ID {
			copied := s.projects.items[i]
			s.projects.current = &copied
			return
		}
	}
	s.projects.current = nil
}

// ensureProjectMemo rebuilds the memoized views if stale. Must be called
// with the mutex held.
func (s *Store) ensureProjectMemo() {
	if s.projectMemo.valid && s.projectMemo.version == s.projects.version {
		return
	}
	all := make([]Project, len(s.projects.items))
	copy(all, s.projects.items)
	byID := make(map[string]*Project, len(all))
	byStatus := make(map[ProjectStatus][]Project)
	byProfile := make(map[string][]Project)
	for i := range all {
		byID[all[i].ID] = &all[i]
		byStatus[all[i].Status] = append(byStatus[all[i].Status], all[i])
		if all[i].ProfileID != "" {
			byProfile[all[i].ProfileID] = append(byProfile[all[i].ProfileID], all[i])
		}
	}
	s.projectMemo = projectMemo{
		version:   s.projects.version,
		valid:     true,
		all:       all,
		byID:      byID,
		byStatus:  byStatus,
		byProfile: byProfile,
	}
}

// ProjectsSnapshot returns a consistent view of the projects slice. The
// Items slice is stable across calls until the slice is next mutated.
func (s *Store) ProjectsSnapshot() ProjectsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureProjectMemo()
	view := ProjectsView{
		Items:   s.projectMemo.all,
		Loading: s.projects.loading,
		Err:     s.projects.err,
		Version: s.projects.version,
	}
	if s.projects.current != nil {
		copied := *s.projects.current
		view.Current = &copied
	}
	return view
}

// ProjectByID looks up a project in the memoized index
func (s *Store) ProjectByID(id string) (Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureProjectMemo()
	p, ok := s.projectMemo.byID[id]
	if !ok {
		return Project{}, false
	}
	return *p, true
}

// ProjectsByStatus returns projects with the given status in collection
// order. The returned slice is stable across calls until the next mutation.
func (s *Store) ProjectsByStatus(status ProjectStatus) []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureProjectMemo()
	return s.projectMemo.byStatus[status]
}

// ProjectsByProfile returns projects associated with the given profile in
// collection order.
func (s *Store) ProjectsByProfile(profileID string) []Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureProjectMemo()
	return s.projectMemo.byProfile[profileID]
}
