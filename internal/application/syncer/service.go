// Package syncer keeps the in-process workspace mirror aligned with the
// upstream profile and project services. It consumes authentication state
// transitions, fetches the signed-in user's data, and writes the results
// into the state store.
package syncer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/copystudio/backend/internal/domain/state"
	"github.com/copystudio/backend/internal/infrastructure/broadcast"
	"github.com/copystudio/backend/internal/infrastructure/config"
)

// Fallback slice error messages when the underlying error has no text.
const (
	msgProfilesFailed = "failed to load profiles"
	msgProjectsFailed = "failed to load projects"
)

// ProfileLister fetches all profiles belonging to a user.
type ProfileLister interface {
	ListByUser(ctx context.Context, userID string) ([]state.Profile, error)
}

// ProjectLister fetches all projects belonging to a user.
type ProjectLister interface {
	ListByUser(ctx context.Context, userID string) ([]state.Project, error)
}

// Service orchestrates workspace synchronization. Each distinct signed-in
// UserID triggers exactly one profiles fetch and one projects fetch; a newer
// trigger cancels and supersedes in-flight fetches, so a stale result never
// overwrites a newer one.
type Service struct {
	store    *state.Store
	profiles ProfileLister
	projects ProjectLister
	source   AuthSource
	cfg      config.SyncConfig
	logger   *zap.Logger

	// broadcaster propagates refresh hints between gateway instances.
	// Optional; nil for single-instance runs without Redis.
	broadcaster broadcast.Broadcaster

	mu          sync.Mutex
	runCtx      context.Context
	seq         uint64
	cancelFetch context.CancelFunc
	lastUserID  string
	wg          sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithBroadcaster enables cross-instance refresh propagation.
func WithBroadcaster(b broadcast.Broadcaster) Option {
	return func(s *Service) {
		s.broadcaster = b
	}
}

// NewService creates a synchronization service.
func NewService(
	store *state.Store,
	profiles ProfileLister,
	projects ProjectLister,
	source AuthSource,
	cfg config.SyncConfig,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:    store,
		profiles: profiles,
		projects: projects,
		source:   source,
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run consumes auth state transitions until ctx is cancelled or the source
// channel closes. It blocks; call it from a dedicated goroutine.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	if s.broadcaster != nil {
		go func() {
			if err := s.broadcaster.Subscribe(ctx, s.onRefreshMessage); err != nil && ctx.Err() == nil {
				s.logger.Warn("Refresh subscription ended", zap.Error(err))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			s.cancelInFlight()
			s.wg.Wait()
			return ctx.Err()
		case st, ok := <-s.source.Changes():
			if !ok {
				s.cancelInFlight()
				s.wg.Wait()
				return nil
			}
			s.apply(st)
		}
	}
}

// Refresh re-runs both fetches for userID and, when a broadcaster is
// configured, publishes a refresh hint so other instances do the same.
// ctx bounds only the publish; the fetches outlive the caller's request.
func (s *Service) Refresh(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	s.startFetch(userID)
	if s.broadcaster != nil {
		if err := s.broadcaster.Publish(ctx, broadcast.RefreshMessage{UserID: userID}); err != nil {
			s.logger.Warn("Failed to publish refresh hint",
				zap.String("user_id", userID),
				zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *Service) apply(st AuthState) {
	if st.Loading {
		s.store.SetUserLoading(true)
		return
	}

	if !st.Present {
		s.store.SetUser(nil)
		s.mu.Lock()
		s.lastUserID = ""
		s.seq++
		if s.cancelFetch != nil {
			s.cancelFetch()
			s.cancelFetch = nil
		}
		s.mu.Unlock()
		return
	}

	s.store.SetUser(&state.User{
		ID:             st.UserID,
		Email:          st.Email,
		Name:           st.DisplayName,
		ProfilePicture: st.PhotoURL,
	})

	s.mu.Lock()
	changed := st.UserID != "" && st.UserID != s.lastUserID
	if changed {
		s.lastUserID = st.UserID
	}
	s.mu.Unlock()

	if changed {
		s.startFetch(st.UserID)
	}
}

// startFetch launches a superseding fetch pair for userID. Any in-flight
// fetch is cancelled and its result, should it still arrive, is discarded
// by the sequence check.
func (s *Service) startFetch(userID string) {
	s.mu.Lock()
	if s.cancelFetch != nil {
		s.cancelFetch()
	}
	parent := s.runCtx
	if parent == nil {
		parent = context.Background()
	}
	fetchCtx, cancel := context.WithCancel(parent)
	s.cancelFetch = cancel
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	s.store.SetProfilesLoading(true)
	s.store.SetProjectsLoading(true)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.fetchProfiles(fetchCtx, userID, seq)
	}()
	go func() {
		defer s.wg.Done()
		s.fetchProjects(fetchCtx, userID, seq)
	}()
}

func (s *Service) fetchProfiles(ctx context.Context, userID string, seq uint64) {
	var items []state.Profile
	err := s.runFetch(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.profiles.ListByUser(ctx, userID)
		return err
	})
	if !s.current(seq) {
		s.logger.Debug("Discarding superseded profiles fetch",
			zap.String("user_id", userID))
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("Profiles fetch failed",
			zap.String("user_id", userID),
			zap.Error(err))
		s.store.SetProfilesError(errorMessage(err, msgProfilesFailed))
		return
	}
	s.store.ReplaceProfiles(items)
	s.logger.Debug("Profiles synchronized",
		zap.String("user_id", userID),
		zap.Int("count", len(items)))
}

func (s *Service) fetchProjects(ctx context.Context, userID string, seq uint64) {
	var items []state.Project
	err := s.runFetch(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.projects.ListByUser(ctx, userID)
		return err
	})
	if !s.current(seq) {
		s.logger.Debug("Discarding superseded projects fetch",
			zap.String("user_id", userID))
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("Projects fetch failed",
			zap.String("user_id", userID),
			zap.Error(err))
		s.store.SetProjectsError(errorMessage(err, msgProjectsFailed))
		return
	}
	s.store.ReplaceProjects(items)
	s.logger.Debug("Projects synchronized",
		zap.String("user_id", userID),
		zap.Int("count", len(items)))
}

// runFetch runs fn once under the configured fetch timeout. A failure is
// never retried; the caller surfaces it on the slice right away.
func (s *Service) runFetch(ctx context.Context, fn func(context.Context) error) error {
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func (s *Service) onRefreshMessage(msg broadcast.RefreshMessage) {
	s.mu.Lock()
	match := msg.UserID != "" && msg.UserID == s.lastUserID
	s.mu.Unlock()
	if !match {
		return
	}
	s.logger.Debug("Refresh hint received", zap.String("user_id", msg.UserID))
	s.startFetch(msg.UserID)
}

func (s *Service) current(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}

func (s *Service) cancelInFlight() {
	s.mu.Lock()
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.mu.Unlock()
}

func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
