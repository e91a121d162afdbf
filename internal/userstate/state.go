package userstate

import (
	"sync"

	"packmule/internal/services"
)

// Continuation is a suspended republish flow waiting for the user to supply
// an author name.
type Continuation struct {
	PackDir string
}

// Service owns all per-user conversation state: the republish preference and
// any pending awaiting-author continuation. State is in-memory only; a
// restart clears it. Every operation is individually atomic, which makes a
// racing duplicate message resolve to exactly one continuation take.
type Service struct {
	republishAvailable bool

	mu        sync.Mutex
	republish map[int64]bool
	pending   map[int64]Continuation
}

// NewService constructs the state service. republishAvailable reflects
// whether destination platform credentials are configured; when false the
// toggle is a capability-gated no-op.
func NewService(republishAvailable bool) *Service {
	return &Service{
		republishAvailable: republishAvailable,
		republish:          make(map[int64]bool),
		pending:            make(map[int64]Continuation),
	}
}

// Toggle flips the user's republish preference and returns the new mode.
// Without destination credentials the preference is forced to
// download-only regardless of the requested state.
func (s *Service) Toggle(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.republishAvailable {
		s.republish[userID] = false
		return false, services.Wrap(services.ErrConfiguration, "userstate", "toggle", "destination credentials not configured", nil)
	}

	next := !s.republish[userID]
	s.republish[userID] = next
	return next, nil
}

// RepublishEnabled reports the user's current preference. Defaults to
// download-only.
func (s *Service) RepublishEnabled(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.republishAvailable && s.republish[userID]
}

// SetContinuation records an awaiting-author continuation for the user,
// replacing any previous one.
func (s *Service) SetContinuation(userID int64, c Continuation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[userID] = c
}

// PeekContinuation returns the user's pending continuation without clearing
// it.
func (s *Service) PeekContinuation(userID int64) (Continuation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[userID]
	return c, ok
}

// TakeContinuation atomically removes and returns the user's pending
// continuation. A continuation is always cleared before its side effect
// runs, so a failure during the resumed action cannot re-trigger it from
// the same inbound text.
func (s *Service) TakeContinuation(userID int64) (Continuation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[userID]
	if ok {
		delete(s.pending, userID)
	}
	return c, ok
}
