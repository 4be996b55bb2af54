package service

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/set-night/firelinx/internal/domain"
)

// SessionStore keeps the in-progress report of every conversation in memory.
// Calls for the same chat are serialized; different chats only share the short
// map lookup.
type SessionStore struct {
	mu      sync.Mutex
	entries map[int64]*sessionEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
	refs    int

	// Copied from session on release, guarded by SessionStore.mu.
	live      bool
	updatedAt time.Time
}

// NewSessionStore creates a store that treats sessions idle longer than ttl as absent.
// A nil clock uses real time.
func NewSessionStore(ttl time.Duration, clock clockwork.Clock) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{
		entries: make(map[int64]*sessionEntry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (s *SessionStore) acquire(chatID int64) *sessionEntry {
	s.mu.Lock()
	e, ok := s.entries[chatID]
	if !ok {
		e = &sessionEntry{}
		s.entries[chatID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return e
}

func (s *SessionStore) release(chatID int64, e *sessionEntry) {
	// e.mu is held here; acquire never waits on e.mu while holding s.mu.
	s.mu.Lock()
	empty := e.session == nil
	e.live = !empty
	if !empty {
		e.updatedAt = e.session.UpdatedAt
	}
	e.mu.Unlock()

	e.refs--
	if e.refs == 0 && empty && s.entries[chatID] == e {
		delete(s.entries, chatID)
	}
	s.mu.Unlock()
}

func (s *SessionStore) expired(updatedAt time.Time) bool {
	return s.ttl > 0 && s.clock.Since(updatedAt) > s.ttl
}

// Update runs fn under the chat's lock with a copy of the current session (nil
// when absent or expired). A new session replaces the stored one and restarts
// its TTL; returning the copy unchanged leaves the store as it was; nil deletes.
// fn may block without affecting other chats.
func (s *SessionStore) Update(chatID int64, fn func(cur *domain.Session) *domain.Session) {
	e := s.acquire(chatID)
	defer s.release(chatID, e)

	cur := e.session
	if cur != nil && s.expired(cur.UpdatedAt) {
		cur = nil
		e.session = nil
	}

	given := cur.Clone()
	next := fn(given)
	if next != nil && next == given {
		return
	}
	if next == nil {
		e.session = nil
		return
	}
	next = next.Clone()
	next.ChatID = chatID
	next.UpdatedAt = s.clock.Now()
	e.session = next
}

// Get returns a copy of the chat's session, or nil. It does not refresh the TTL.
func (s *SessionStore) Get(chatID int64) *domain.Session {
	e := s.acquire(chatID)
	defer s.release(chatID, e)

	if e.session == nil || s.expired(e.session.UpdatedAt) {
		return nil
	}
	return e.session.Clone()
}

// Delete removes the chat's session. It reports whether one was present.
func (s *SessionStore) Delete(chatID int64) bool {
	var had bool
	s.Update(chatID, func(cur *domain.Session) *domain.Session {
		had = cur != nil
		return nil
	})
	return had
}

// Sweep drops expired sessions that nobody currently holds and returns how many
// were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if e.refs > 0 {
			continue
		}
		if !e.live || s.expired(e.updatedAt) {
			delete(s.entries, id)
			if e.live {
				removed++
			}
		}
	}
	return removed
}

// Len returns the number of unexpired sessions as of the last completed call
// for each chat. Calls still in flight are not waited for.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.live && !s.expired(e.updatedAt) {
			n++
		}
	}
	return n
}
