package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/metropath/internal/core/domain"
	"github.com/samirrijal/metropath/internal/pkg/geospatial"
)

// StationService answers catalogue queries about lines and stations.
type StationService struct {
	networks *NetworkService
}

// NewStationService creates a new StationService.
func NewStationService(networks *NetworkService) *StationService {
	return &StationService{networks: networks}
}

// ListLines returns every line in dataset order.
func (s *StationService) ListLines(ctx context.Context) ([]domain.Line, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Line(nil), snap.Network.Lines...), nil
}

// GetLine returns a single line.
func (s *StationService) GetLine(ctx context.Context, id string) (*domain.Line, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, err
	}
	line, ok := snap.Network.Line(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, id)
	}
	return &line, nil
}

// ListStations returns all stations, or only those serving lineID when it
// is not empty.
func (s *StationService) ListStations(ctx context.Context, lineID string) ([]domain.Station, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, err
	}
	if lineID == "" {
		return append([]domain.Station(nil), snap.Network.Stations...), nil
	}
	if _, ok := snap.Network.Line(lineID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}

	out := []domain.Station{}
	for _, st := range snap.Network.Stations {
		if st.Serves(lineID) {
			out = append(out, st)
		}
	}
	return out, nil
}

// GetStation returns a single station.
func (s *StationService) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := snap.Network.Station(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStationNotFound, id)
	}
	return &st, nil
}

// Search matches stations whose name contains query, ignoring case.
func (s *StationService) Search(ctx context.Context, query string, limit int) ([]domain.Station, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	out := []domain.Station{}
	for _, st := range snap.Network.Stations {
		if strings.Contains(strings.ToLower(st.Name), needle) {
			out = append(out, st)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// TransferStations returns every station served by more than one line.
func (s *StationService) TransferStations(ctx context.Context) ([]domain.Station, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Station{}
	for _, st := range snap.Network.Stations {
		if st.IsTransfer {
			out = append(out, st)
		}
	}
	return out, nil
}

// Nearest returns the station closest to (lat, lng) on the map plane and
// its distance in map units.
func (s *StationService) Nearest(ctx context.Context, lat, lng float64) (*domain.Station, float64, error) {
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return nil, 0, err
	}
	if len(snap.Network.Stations) == 0 {
		return nil, 0, ErrStationNotFound
	}

	target := domain.GeoPoint{Lat: lat, Lng: lng}
	best := snap.Network.Stations[0]
	bestDist := geospatial.Distance(target, best.Location())
	for _, st := range snap.Network.Stations[1:] {
		if d := geospatial.Distance(target, st.Location()); d < bestDist {
			best, bestDist = st, d
		}
	}
	return &best, bestDist, nil
}

// Bounds returns the box around every station, grown by padding (a fraction
// of its size) on each side.
func (s *StationService) Bounds(ctx context.Context, padding float64) (domain.Bounds, error) {
	if padding < 0 || padding > 1 {
		return domain.Bounds{}, fmt.Errorf("%w: padding must be within 0..1", ErrInvalidArgument)
	}
	snap, err := s.networks.Current(ctx)
	if err != nil {
		return domain.Bounds{}, err
	}

	points := make([]domain.GeoPoint, 0, len(snap.Network.Stations))
	for _, st := range snap.Network.Stations {
		points = append(points, st.Location())
	}
	b, ok := geospatial.BoundsOf(points)
	if !ok {
		return domain.Bounds{}, ErrStationNotFound
	}
	return geospatial.Pad(b, padding), nil
}
