package quiz

import (
	"sync"
)

// SessionStore owns every user's session. Each user has a lock of their own,
// so presses from one user are serialized while different users never wait
// on each other beyond the map lookup.
type SessionStore struct {
	mu      sync.Mutex
	entries map[int64]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// NewSessionStore creates an empty store
func NewSessionStore() *SessionStore {
	return &SessionStore{entries: make(map[int64]*sessionEntry)}
}

func (s *SessionStore) entry(userID int64) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &sessionEntry{}
		s.entries[userID] = e
	}
	return e
}

// Update runs fn under the user's lock with the current session, nil when
// the user has none. A non-nil session returned by fn replaces the stored one.
func (s *SessionStore) Update(userID int64, fn func(current *Session) (*Session, error)) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.session)
	if err != nil {
		return err
	}
	if next != nil {
		e.session = next
	}
	return nil
}

// Get returns a copy of the user's session
func (s *SessionStore) Get(userID int64) (*Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, false
	}
	return e.session.Clone(), true
}

// Len returns the number of users holding a session
func (s *SessionStore) Len() int {
	s.mu.Lock()
	entries := make([]*sessionEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.session != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
