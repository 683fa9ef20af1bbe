// Package geo provides the immutable path representation used by route
// assembly, plus distance and elevation bookkeeping over raw coordinates.
package geo

import (
	"math"
)

const earthRadiusKm = 6371.0

// endpointMergeToleranceKm is the distance under which two segment endpoints
// are treated as the same coordinate during concatenation.
const endpointMergeToleranceKm = 0.05

// Point is a single geographic coordinate with optional elevation
type Point struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Elevation float64 `json:"elevation"`
}

// Path is an immutable sequence of points with precomputed aggregates.
// Aggregates are always recomputed from the raw coordinates rather than
// trusted from any upstream segment, so concatenation cannot compound
// rounding error.
type Path struct {
	points         []Point
	distanceKm     float64
	elevationGainM float64
}

// NewPath builds a path from points, computing distance and elevation gain.
// The input slice is copied; callers may reuse it.
func NewPath(points []Point) Path {
	cloned := make([]Point, len(points))
	copy(cloned, points)

	var distance, gain float64
	for i := 1; i < len(cloned); i++ {
		distance += HaversineKm(cloned[i-1], cloned[i])
		if delta := cloned[i].Elevation - cloned[i-1].Elevation; delta > 0 {
			gain += delta
		}
	}

	return Path{
		points:         cloned,
		distanceKm:     distance,
		elevationGainM: gain,
	}
}

// Points returns a copy of the path's coordinates
func (p Path) Points() []Point {
	cloned := make([]Point, len(p.points))
	copy(cloned, p.points)
	return cloned
}

// Len returns the number of coordinates
func (p Path) Len() int {
	return len(p.points)
}

// IsEmpty reports whether the path has no coordinates
func (p Path) IsEmpty() bool {
	return len(p.points) == 0
}

// DistanceKm returns the total path distance in kilometers
func (p Path) DistanceKm() float64 {
	return p.distanceKm
}

// ElevationGainM returns the total elevation gain in meters
func (p Path) ElevationGainM() float64 {
	return p.elevationGainM
}

// Start returns the first coordinate. Zero value for an empty path.
func (p Path) Start() Point {
	if len(p.points) == 0 {
		return Point{}
	}
	return p.points[0]
}

// End returns the last coordinate. Zero value for an empty path.
func (p Path) End() Point {
	if len(p.points) == 0 {
		return Point{}
	}
	return p.points[len(p.points)-1]
}

// Reverse returns a new path with the coordinate order inverted.
// Elevation gain is recomputed for the reversed direction.
func (p Path) Reverse() Path {
	reversed := make([]Point, len(p.points))
	for i, pt := range p.points {
		reversed[len(p.points)-1-i] = pt
	}
	return NewPath(reversed)
}

// MaxGapKm returns the largest distance between adjacent coordinates.
// Used by the safety validator to detect broken geometry.
func (p Path) MaxGapKm() float64 {
	var maxGap float64
	for i := 1; i < len(p.points); i++ {
		if gap := HaversineKm(p.points[i-1], p.points[i]); gap > maxGap {
			maxGap = gap
		}
	}
	return maxGap
}

// Concat joins paths into a single continuous path. When a segment starts
// where the previous one ended (within tolerance) the duplicated endpoint is
// dropped so the joined geometry has no repeated coordinates. Aggregates are
// recomputed from scratch; inputs are never mutated.
func Concat(paths ...Path) Path {
	var merged []Point
	for _, path := range paths {
		pts := path.points
		if len(pts) == 0 {
			continue
		}
		if len(merged) > 0 && HaversineKm(merged[len(merged)-1], pts[0]) < endpointMergeToleranceKm {
			pts = pts[1:]
		}
		merged = append(merged, pts...)
	}
	return NewPath(merged)
}

// HaversineKm returns the great-circle distance between two points in km
func HaversineKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
