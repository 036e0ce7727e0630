package session

import "sync"

// Store partitions sessions by identity. It is safe for concurrent access;
// sessions of different users never share mutable state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore constructs an empty in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// get returns the session for id, creating it lazily.
func (s *Store) get(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// Double-check after acquiring write lock
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess = New(id)
	s.sessions[id] = sess
	return sess
}

// Do runs fn with exclusive access to the session for id. Whatever fn wrote
// stays written even if fn returns an error.
func (s *Store) Do(id string, fn func(*Session) error) error {
	sess := s.get(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	err := fn(sess)
	sess.Touch()
	return err
}

// Get returns a copy of the session for id, if it exists.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), true
}

// Len returns the number of sessions created so far.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
