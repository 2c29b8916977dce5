package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/core/ports"
	"github.com/samirrijal/metropath/internal/core/routing"
	"github.com/samirrijal/metropath/internal/pkg/metrics"
	"github.com/samirrijal/metropath/internal/pkg/telemetry"
)

// Snapshot is one loaded network revision with its built routing graph.
// It is immutable and safe to share between requests.
type Snapshot struct {
	Network  *domain.Network
	Planner  *routing.Planner
	Checksum string
	BuiltAt  time.Time
}

// NetworkService owns the current network and its routing graph. The graph
// is built on first use and replaced wholesale when invalidated.
type NetworkService struct {
	repo   ports.NetworkRepository
	costs  routing.Costs
	logger *slog.Logger

	mu      sync.RWMutex
	current *Snapshot
}

// NewNetworkService creates a new NetworkService. Zero cost fields fall back
// to the minutes stored with the network.
func NewNetworkService(repo ports.NetworkRepository, costs routing.Costs, logger *slog.Logger) *NetworkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NetworkService{repo: repo, costs: costs, logger: logger}
}

// Current returns the active snapshot, loading and building it if needed.
func (s *NetworkService) Current(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()
	if snap != nil {
		return snap, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.current, nil
	}

	snap, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.current = snap
	return snap, nil
}

// Reload rebuilds the snapshot from the repository immediately.
func (s *NetworkService) Reload(ctx context.Context) (*Snapshot, error) {
	snap, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()
	return snap, nil
}

// Invalidate drops the cached graph; the next query rebuilds it.
func (s *NetworkService) Invalidate() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Diagnostics returns the data-integrity warnings of the current graph.
func (s *NetworkService) Diagnostics(ctx context.Context) ([]routing.Diagnostic, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Planner.Graph().Diagnostics(), nil
}

// HandleNetworkUpdated invalidates the graph when a different revision has
// been stored. It is registered as a broker subscription handler.
func (s *NetworkService) HandleNetworkUpdated(ctx context.Context, event *domain.NetworkUpdatedEvent) error {
	s.mu.RLock()
	snap := s.current
	s.mu.RUnlock()

	if snap != nil && snap.Checksum == event.Checksum {
		return nil
	}
	s.logger.Info("network updated, dropping routing graph", "checksum", event.Checksum, "stations", event.Stations)
	s.Invalidate()
	return nil
}

func (s *NetworkService) build(ctx context.Context) (*Snapshot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGraphBuild)
	defer span.End()

	network, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	if err := network.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNetwork, err)
	}

	costs := s.costs
	if costs.StopMinutes == 0 {
		costs.StopMinutes = network.StopMinutes
	}
	if costs.TransferMinutes == 0 {
		costs.TransferMinutes = network.TransferMinutes
	}

	g := routing.BuildWithLogger(network.Stations, network.Edges, s.logger)
	diags := g.Diagnostics()
	for _, d := range diags {
		metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
	metrics.GraphBuilds.Inc()
	metrics.GraphNodes.Set(float64(g.NodeCount()))

	checksum := network.Checksum()
	span.SetAttributes(attribute.String(telemetry.AttrNetwork, checksum))
	s.logger.Info("routing graph built",
		"checksum", checksum,
		"stations", len(network.Stations),
		"nodes", g.NodeCount(),
		"arcs", g.ArcCount(),
		"diagnostics", len(diags),
	)

	return &Snapshot{
		Network:  network,
		Planner:  routing.NewPlanner(g, costs),
		Checksum: checksum,
		BuiltAt:  time.Now(),
	}, nil
}
