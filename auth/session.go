// Package auth holds the client-side identity concerns: the session slot,
// the ownership policy and input validation. The remote service stays the
// authority for all of them; everything here is advisory.
package auth

import (
	"sync"

	"feed-lab/domain/feed"
)

// Session is the process-wide single slot for the authenticated identity.
// At most one identity at a time; logging in over an existing session
// overwrites it silently (the UI only drives one login at a time).
type Session struct {
	mu       sync.RWMutex
	identity *feed.Identity
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Login(identity feed.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &identity
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
}

// Current returns the held identity, or nil when logged out. The returned
// pointer is a copy; holders cannot mutate the session through it.
func (s *Session) Current() *feed.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	identity := *s.identity
	return &identity
}
