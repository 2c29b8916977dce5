package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/metropath/internal/core/usecases"
)

// Pinger is a backing service that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// History, NATS, DB and Cache are optional.
type Dependencies struct {
	Network  *usecases.NetworkService
	Stations *usecases.StationService
	Routes   *usecases.RouteService
	History  *usecases.HistoryService
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
}
