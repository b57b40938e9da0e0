package syncer

// AuthState is a point-in-time view of the authenticated user as reported
// by the session layer.
type AuthState struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
	Loading     bool // identity resolution in progress
	Present     bool // a signed-in user exists
}

// AuthSource delivers authentication state transitions to the syncer.
type AuthSource interface {
	Changes() <-chan AuthState
}

// ChannelAuthSource is an in-process AuthSource fed by the session service.
type ChannelAuthSource struct {
	ch chan AuthState
}

const authSourceBufferSize = 16

// NewChannelAuthSource creates a buffered in-process auth source.
func NewChannelAuthSource() *ChannelAuthSource {
	return &ChannelAuthSource{ch: make(chan AuthState, authSourceBufferSize)}
}

// Publish delivers an auth state transition to the consumer. When the buffer
// is full (the consumer has stopped or stalled) the transition is dropped so
// callers on the request path never block.
func (s *ChannelAuthSource) Publish(st AuthState) bool {
	select {
	case s.ch <- st:
		return true
	default:
		return false
	}
}

// Changes returns the transition channel consumed by the syncer.
func (s *ChannelAuthSource) Changes() <-chan AuthState {
	return s.ch
}
