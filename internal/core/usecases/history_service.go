package usecases

import (
	"context"
	"fmt"

	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/core/ports"
)

// DefaultHistoryCapacity is the number of recent routes kept per session.
const DefaultHistoryCapacity = 4

// HistoryService keeps a short most-recent-first list of planned routes
// per session.
type HistoryService struct {
	store    ports.HistoryStore
	capacity int
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(store ports.HistoryStore, capacity int) *HistoryService {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryService{store: store, capacity: capacity}
}

// Add records a route at the front of the history. An existing entry for
// the same pair moves to the front instead of being duplicated.
func (s *HistoryService) Add(ctx context.Context, session string, from, to domain.Station) ([]domain.RouteHistoryEntry, error) {
	if session == "" {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidArgument)
	}
	entry := domain.RouteHistoryEntry{From: from, To: to}
	next, err := s.store.Update(ctx, session, func(entries []domain.RouteHistoryEntry) []domain.RouteHistoryEntry {
		next := make([]domain.RouteHistoryEntry, 0, s.capacity)
		next = append(next, entry)
		for _, e := range entries {
			if len(next) == s.capacity {
				break
			}
			if !e.Same(entry) {
				next = append(next, e)
			}
		}
		return next
	})
	if err != nil {
		return nil, fmt.Errorf("update history: %w", err)
	}
	return next, nil
}

// Remove deletes the entry for the given pair, if any.
func (s *HistoryService) Remove(ctx context.Context, session, fromID, toID string) ([]domain.RouteHistoryEntry, error) {
	target := domain.RouteHistoryEntry{From: domain.Station{ID: fromID}, To: domain.Station{ID: toID}}
	next, err := s.store.Update(ctx, session, func(entries []domain.RouteHistoryEntry) []domain.RouteHistoryEntry {
		kept := make([]domain.RouteHistoryEntry, 0, len(entries))
		for _, e := range entries {
			if !e.Same(target) {
				kept = append(kept, e)
			}
		}
		return kept
	})
	if err != nil {
		return nil, fmt.Errorf("update history: %w", err)
	}
	return next, nil
}

// List returns the session history, most recent first.
func (s *HistoryService) List(ctx context.Context, session string) ([]domain.RouteHistoryEntry, error) {
	entries, err := s.store.Get(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if entries == nil {
		entries = []domain.RouteHistoryEntry{}
	}
	return entries, nil
}

// Select returns the entry at index so the caller can plan it again.
func (s *HistoryService) Select(ctx context.Context, session string, index int) (domain.RouteHistoryEntry, error) {
	entries, err := s.store.Get(ctx, session)
	if err != nil {
		return domain.RouteHistoryEntry{}, fmt.Errorf("get history: %w", err)
	}
	if index < 0 || index >= len(entries) {
		return domain.RouteHistoryEntry{}, fmt.Errorf("%w: %d", ErrHistoryIndex, index)
	}
	return entries[index], nil
}

// Clear forgets the whole session history.
func (s *HistoryService) Clear(ctx context.Context, session string) error {
	return s.store.Delete(ctx, session)
}
