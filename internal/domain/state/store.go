package state

import (
	"sync"

	"go.uber.org/zap"
)

// SliceName identifies one of the store's independently managed slices
type SliceName string

const (
	SliceUser     SliceName = "user"
	SliceProfiles SliceName = "profiles"
	SliceProjects SliceName = "projects"
)

// Change describes a store mutation delivered to subscribers
type Change struct {
	Slice   SliceName `json:"slice"`
	Version uint64    `json:"version"`
}

// subscriberBufferSize bounds each subscriber channel; slow subscribers
// drop notifications rather than block mutations.
const subscriberBufferSize = 16

type userSlice struct {
	current *User
	loading bool
	err     string
	version uint64
}

type profileSlice struct {
	items   []Profile
	current *Profile
	loading bool
	err     string
	version uint64
}

type projectSlice struct {
	items   []Project
	current *Project
	loading bool
	err     string
	version uint64
}

// Store is the workspace mirror. All mutations are synchronous and total:
// the store itself never fails, it only records what it is told (including
// errors reported by upstream fetches). Every operation is atomic with
// respect to concurrent reads and writes.
type Store struct {
	mu       sync.Mutex
	user     userSlice
	profiles profileSlice
	projects projectSlice

	profileMemo profileMemo
	projectMemo projectMemo

	subs    map[uint64]chan Change
	nextSub uint64

	logger *zap.Logger
}

// StoreOption is a functional option for configuring the store
type StoreOption func(*Store)

// WithLogger sets the logger for the store
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store. All slices start empty with
// loading=false and no error.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		logger: zap.NewNop(),
		subs:   make(map[uint64]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a change listener. The returned cancel function must
// be called to release the subscription.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Change, subscriberBufferSize)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify must be called with the mutex held
func (s *Store) notify(slice SliceName, version uint64) {
	change := Change{Slice: slice, Version: version}
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
			s.logger.Warn("store subscriber channel full, dropping change",
				zap.String("slice", string(slice)),
				zap.Uint64("version", version))
		}
	}
}

// ---------------------------------------------------------------------------
// User slice
// ---------------------------------------------------------------------------

// UserView is a consistent snapshot of the user slice
type UserView struct {
	User    *User
	Loading bool
	Err     string
	Version uint64
}

// SetUserLoading sets the user slice loading flag
func (s *Store) SetUserLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.loading = loading
	s.user.version++
	s.notify(SliceUser, s.user.version)
}

// SetUserError records an error on the user slice without touching its data
func (s *Store) SetUserError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user.err = msg
	s.user.version++
	s.notify(SliceUser, s.user.version)
}

// SetUser replaces the mirrored user wholesale, clearing loading and error
// as one transition. A nil user represents signed-out.
func (s *Store) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u != nil {
		copied := *u
		s.user.current = &copied
	} else {
		s.user.current = nil
	}
	s.user.loading = false
	s.user.err = ""
	s.user.version++
	s.notify(SliceUser, s.user.version)
}

// UserSnapshot returns a consistent view of the user slice
func (s *Store) UserSnapshot() UserView {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := UserView{Loading: s.user.loading, Err: s.user.err, Version: s.user.version}
	if s.user.current != nil {
		copied := *s.user.current
		view.User = &copied
	}
	return view
}

// Authenticated reports whether a user is currently signed in
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.current != nil
}
