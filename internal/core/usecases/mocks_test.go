package usecases_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/samirrijal/metropath/internal/adapters/dataset"
	"github.com/samirrijal/metropath/internal/core/domain"
)

// --- Mock NetworkRepository ---

type mockNetworkRepo struct {
	loadFn func(ctx context.Context) (*domain.Network, error)
	calls  int
}

func (m *mockNetworkRepo) Load(ctx context.Context) (*domain.Network, error) {
	m.calls++
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return nil, errors.New("no network")
}

func sampleRepo(t *testing.T) *mockNetworkRepo {
	t.Helper()
	return &mockNetworkRepo{
		loadFn: func(ctx context.Context) (*domain.Network, error) {
			return dataset.Sample()
		},
	}
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttlSeconds
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	routeFn   func(ctx context.Context, event *domain.RouteComputedEvent) error
	networkFn func(ctx context.Context, event *domain.NetworkUpdatedEvent) error
	routes    []*domain.RouteComputedEvent
}

func (m *mockPublisher) PublishRouteComputed(ctx context.Context, event *domain.RouteComputedEvent) error {
	m.routes = append(m.routes, event)
	if m.routeFn != nil {
		return m.routeFn(ctx, event)
	}
	return nil
}

func (m *mockPublisher) PublishNetworkUpdated(ctx context.Context, event *domain.NetworkUpdatedEvent) error {
	if m.networkFn != nil {
		return m.networkFn(ctx, event)
	}
	return nil
}

// --- Mock HistoryStore ---

type mockHistoryStore struct {
	mu       sync.Mutex
	getFn    func(ctx context.Context, session string) ([]domain.RouteHistoryEntry, error)
	sessions map[string][]domain.RouteHistoryEntry
}

func newMockHistoryStore() *mockHistoryStore {
	return &mockHistoryStore{sessions: map[string][]domain.RouteHistoryEntry{}}
}

func (m *mockHistoryStore) Get(ctx context.Context, session string) ([]domain.RouteHistoryEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[session], nil
}

func (m *mockHistoryStore) Update(ctx context.Context, session string, fn func([]domain.RouteHistoryEntry) []domain.RouteHistoryEntry) ([]domain.RouteHistoryEntry, error) {
	if m.getFn != nil {
		if _, err := m.getFn(ctx, session); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next := fn(append([]domain.RouteHistoryEntry(nil), m.sessions[session]...))
	m.sessions[session] = next
	return next, nil
}

func (m *mockHistoryStore) Delete(ctx context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, session)
	return nil
}
