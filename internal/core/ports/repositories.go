package ports

import (
	"context"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// NetworkRepository loads the static network description.
type NetworkRepository interface {
	Load(ctx context.Context) (*domain.Network, error)
}

// NetworkWriter replaces the stored network in one step.
type NetworkWriter interface {
	Replace(ctx context.Context, network *domain.Network) error
}

// HistoryStore keeps the route history of short-lived sessions.
// Update applies fn to the current entries and stores its result as one
// atomic step per session.
type HistoryStore interface {
	Get(ctx context.Context, session string) ([]domain.RouteHistoryEntry, error)
	Update(ctx context.Context, session string, fn func([]domain.RouteHistoryEntry) []domain.RouteHistoryEntry) ([]domain.RouteHistoryEntry, error)
	Delete(ctx context.Context, session string) error
}
