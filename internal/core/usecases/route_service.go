package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/core/ports"
	"github.com/samirrijal/metropath/internal/core/routing"
	"github.com/samirrijal/metropath/internal/pkg/metrics"
	"github.com/samirrijal/metropath/internal/pkg/telemetry"
)

const defaultRouteCacheTTL = 600

// RouteService plans routes between stations.
type RouteService struct {
	networks  *NetworkService
	cache     ports.CacheService
	publisher ports.EventPublisher
	cacheTTL  int
	logger    *slog.Logger
}

// NewRouteService creates a new RouteService. cache and publisher may be nil.
func NewRouteService(networks *NetworkService, cache ports.CacheService, publisher ports.EventPublisher, cacheTTL int) *RouteService {
	if cacheTTL <= 0 {
		cacheTTL = defaultRouteCacheTTL
	}
	return &RouteService{
		networks:  networks,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		logger:    slog.Default(),
	}
}

// Plan returns the shortest route from one station to another. It returns
// ErrNoRoute when the destination cannot be reached.
func (s *RouteService) Plan(ctx context.Context, fromID, toID string) (*domain.RouteResult, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRoutePlan)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrFromStation, fromID),
		attribute.String(telemetry.AttrToStation, toID),
	)

	if fromID == "" || toID == "" {
		return nil, fmt.Errorf("%w: from and to station ids are required", ErrInvalidArgument)
	}

	snap, err := s.networks.Current(ctx)
	if err != nil {
		metrics.RouteQueries.WithLabelValues("error").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrNetwork, snap.Checksum))

	from, ok := snap.Network.Station(fromID)
	if !ok {
		metrics.RouteQueries.WithLabelValues("unknown_station").Inc()
		return nil, fmt.Errorf("%w: %s", ErrStationNotFound, fromID)
	}
	to, ok := snap.Network.Station(toID)
	if !ok {
		metrics.RouteQueries.WithLabelValues("unknown_station").Inc()
		return nil, fmt.Errorf("%w: %s", ErrStationNotFound, toID)
	}

	cacheKey := fmt.Sprintf("route:%s:%s:%s", snap.Checksum, fromID, toID)
	if res, ok := s.cached(ctx, cacheKey); ok {
		span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true), attribute.Bool(telemetry.AttrFound, true))
		metrics.RouteQueries.WithLabelValues("found").Inc()
		s.publish(ctx, res, snap.Checksum, true)
		return res, nil
	}

	start := time.Now()
	res, diags, found := snap.Planner.Plan(from, to)
	metrics.RouteSolveDuration.Observe(time.Since(start).Seconds())
	for _, d := range diags {
		metrics.Diagnostics.WithLabelValues(string(d.Kind)).Inc()
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false), attribute.Bool(telemetry.AttrFound, found))

	if !found {
		metrics.RouteQueries.WithLabelValues("no_route").Inc()
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRoute, fromID, toID)
	}
	metrics.RouteQueries.WithLabelValues("found").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(res); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}
	s.publish(ctx, res, snap.Checksum, false)

	return res, nil
}

// Invalidate drops the cached routing graph.
func (s *RouteService) Invalidate() {
	s.networks.Invalidate()
}

// Diagnostics returns the integrity warnings of the current routing graph.
func (s *RouteService) Diagnostics(ctx context.Context) ([]routing.Diagnostic, error) {
	return s.networks.Diagnostics(ctx)
}

func (s *RouteService) cached(ctx context.Context, key string) (*domain.RouteResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("route").Inc()
		return nil, false
	}
	var res domain.RouteResult
	if err := json.Unmarshal(data, &res); err != nil {
		metrics.CacheMisses.WithLabelValues("route").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("route").Inc()
	return &res, true
}

func (s *RouteService) publish(ctx context.Context, res *domain.RouteResult, checksum string, fromCache bool) {
	if s.publisher == nil {
		return
	}
	event := &domain.RouteComputedEvent{
		From:       res.From,
		To:         res.To,
		Minutes:    res.Minutes,
		Stops:      res.Stops,
		Transfers:  res.Transfers,
		Network:    checksum,
		ComputedAt: time.Now(),
		FromCache:  fromCache,
	}
	if err := s.publisher.PublishRouteComputed(ctx, event); err != nil {
		s.logger.Warn("publish route computed", "error", err, "from", res.From, "to", res.To)
	}
}
