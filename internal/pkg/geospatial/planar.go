// Package geospatial holds geometry helpers for the flat map plane.
// Coordinates are abstract (lat, lng) pairs; no projection is applied.
package geospatial

import (
	"math"

	"github.com/samirrijal/metropath/internal/core/domain"
)

// Distance returns the euclidean distance between two points on the plane.
func Distance(a, b domain.GeoPoint) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

// BoundsOf returns the smallest box containing every point.
// ok is false for an empty slice.
func BoundsOf(points []domain.GeoPoint) (b domain.Bounds, ok bool) {
	if len(points) == 0 {
		return domain.Bounds{}, false
	}
	b = domain.Bounds{
		MinLat: points[0].Lat, MaxLat: points[0].Lat,
		MinLng: points[0].Lng, MaxLng: points[0].Lng,
	}
	for _, p := range points[1:] {
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
		b.MinLng = math.Min(b.MinLng, p.Lng)
		b.MaxLng = math.Max(b.MaxLng, p.Lng)
	}
	return b, true
}

// Pad grows a box by fraction of its size on every side, for map fitting.
func Pad(b domain.Bounds, fraction float64) domain.Bounds {
	dLat := (b.MaxLat - b.MinLat) * fraction
	dLng := (b.MaxLng - b.MinLng) * fraction
	return domain.Bounds{
		MinLat: b.MinLat - dLat, MaxLat: b.MaxLat + dLat,
		MinLng: b.MinLng - dLng, MaxLng: b.MaxLng + dLng,
	}
}
