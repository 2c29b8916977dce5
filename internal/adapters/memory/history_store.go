// Package memory provides process-local adapters.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/metropath/internal/core/domain"
)

type session struct {
	entries  []domain.RouteHistoryEntry
	lastSeen time.Time
}

// HistoryStore implements ports.HistoryStore in memory. Sessions idle for
// longer than ttl are dropped by a background sweep.
type HistoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewHistoryStore creates a store and starts its sweep loop.
func NewHistoryStore(ttl time.Duration) *HistoryStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &HistoryStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns a copy of the session history.
func (s *HistoryStore) Get(ctx context.Context, id string) ([]domain.RouteHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	sess.lastSeen = s.now()
	return append([]domain.RouteHistoryEntry(nil), sess.entries...), nil
}

// Update replaces the session history with fn applied to a copy of it.
// fn runs under the store lock and must not call back into the store.
func (s *HistoryStore) Update(ctx context.Context, id string, fn func([]domain.RouteHistoryEntry) []domain.RouteHistoryEntry) ([]domain.RouteHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current []domain.RouteHistoryEntry
	if sess, ok := s.sessions[id]; ok {
		current = append(current, sess.entries...)
	}
	next := append([]domain.RouteHistoryEntry(nil), fn(current)...)
	s.sessions[id] = &session{entries: next, lastSeen: s.now()}
	return append([]domain.RouteHistoryEntry(nil), next...), nil
}

// Delete forgets a session.
func (s *HistoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Len is the number of live sessions.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many
// were removed.
func (s *HistoryStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Close stops the sweep loop.
func (s *HistoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *HistoryStore) sweepLoop() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stop:
			return
		}
	}
}
