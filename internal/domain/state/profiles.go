package state

// profileMemo caches derived views of the profile slice. It is rebuilt
// lazily and invalidated whenever the slice version moves, so repeated
// reads between mutations return the same backing slices.
type profileMemo struct {
	version uint64
	valid   bool
	all     []Profile
	byID    map[string]*Profile
}

// ProfilesView is a consistent snapshot of the profiles slice
type ProfilesView struct {
	Items   []Profile
	Current *Profile
	Loading bool
	Err     string
	Version uint64
}

// SetProfilesLoading sets the profiles slice loading flag
func (s *Store) SetProfilesLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles.loading = loading
	s.profiles.version++
	s.notify(SliceProfiles, s.profiles.version)
}

// SetProfilesError records an error on the profiles slice. Existing items
// are left intact so readers keep the last good data.
func (s *Store) SetProfilesError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles.err = msg
	s.profiles.loading = false
	s.profiles.version++
	s.notify(SliceProfiles, s.profiles.version)
}

// ReplaceProfiles swaps the entire profile collection, clearing loading
// and error in the same transition. Input order is preserved.
func (s *Store) ReplaceProfiles(items []Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Profile, len(items))
	copy(copied, items)
	s.profiles.items = copied
	s.profiles.loading = false
	s.profiles.err = ""
	s.reconcileCurrentProfile()
	s.profiles.version++
	s.notify(SliceProfiles, s.profiles.version)
}

// AddProfile appends a profile to the collection
func (s *Store) AddProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles.items = append(s.profiles.items, p)
	s.profiles.version++
	s.notify(SliceProfiles, s.profiles.version)
}

// UpdateProfile replaces the profile with a matching ID in place. Unknown
// IDs are ignored.
func (s *Store) UpdateProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.profiles.items {
		if s.profiles.items[i].ID == p.ID {
			s.profiles.items[i] = p
			if s.profiles.current != nil && s.profiles.current.ID == p.ID {
				copied := p
				s.profiles.current = &copied
			}
			s.profiles.version++
			s.notify(SliceProfiles, s.profiles.version)
			return
		}
	}
}

// DeleteProfile removes the profile with the given ID. If it was the
// current selection, the selection is cleared.
func (s *Store) DeleteProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.profiles.items {
		if s.profiles.items[i].ID == id {
			s.profiles.items = append(s.profiles.items[:i], s.profiles.items[i+1:]...)
			if s.profiles.current != nil && s.profiles.current.ID == id {
				s.profiles.current = nil
			}
			s.profiles.version++
			s.notify(SliceProfiles, s.profiles.version)
			return
		}
	}
}

// SetCurrentProfile selects a profile by ID, or clears the selection when
// id is empty. Selecting an unknown ID is a no-op.
func (s *Store) SetCurrentProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.profiles.current = nil
		s.profiles.version++
		s.notify(SliceProfiles, s.profiles.version)
		return
	}
	for i := range s.profiles.items {
		if s.profiles.items[i].ID == id {
			copied := s.profiles.items[i]
			s.profiles.current = &copied
			s.profiles.version++
			s.notify(SliceProfiles, s.profiles.version)
			return
		}
	}
}

// reconcileCurrentProfile drops the current selection when it no longer
// exists in the collection. Must be called with the mutex held.
func (s *Store) reconcileCurrentProfile() {
	if s.profiles.current == nil {
		return
	}
	for i := range s.profiles.items {
		if s.profiles.items[i].ID == s.profiles.current.ID {
			copied := s.profiles.items[i]
			s.profiles.current = &copied
			return
		}
	}
	s.profiles.current = nil
}

// ensureProfileMemo rebuilds the memoized views if stale. Must be called
// with the mutex held.
func (s *Store) ensureProfileMemo() {
	if s.profileMemo.valid && s.profileMemo.version == s.profiles.version {
		return
	}
	all := make([]Profile, len(s.profiles.items))
	copy(all, s.profiles.items)
	byID := make(map[string]*Profile, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	s.profileMemo = profileMemo{
		version: s.profiles.version,
		valid:   true,
		all:     all,
		byID:    byID,
	}
}

// ProfilesSnapshot returns a consistent view of the profiles slice. The
// Items slice is stable across calls until the slice is next mutated.
func (s *Store) ProfilesSnapshot() ProfilesView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureProfileMemo()
	view := ProfilesView{
		Items:   s.profileMemo.all,
		Loading: s.profiles.loading,
		Err:     s.profiles.err,
		Version: s.profiles.version,
	}
	if s.profiles.current != nil {
		copied := *s.profiles.current
		view.Current = &copied
	}
	return view
}

// ProfileByID looks up a profile in the memoized index
func (s *Store) ProfileByID(id string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureProfileMemo()
	p, ok := s.profileMemo.byID[id]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}
