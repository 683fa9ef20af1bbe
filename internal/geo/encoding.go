package geo

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-polyline"
)

// EncodePolyline returns the Google encoded polyline for the path.
// Elevation is not representable in the polyline format and is dropped.
func EncodePolyline(p Path) string {
	coords := make([][]float64, 0, p.Len())
	for _, pt := range p.points {
		coords = append(coords, []float64{pt.Lat, pt.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePolyline parses a Google encoded polyline into a path with zero
// elevations.
func DecodePolyline(encoded string) (Path, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return Path{}, fmt.Errorf("failed to decode polyline: %w", err)
	}
	points := make([]Point, 0, len(coords))
	for _, c := range coords {
		points = append(points, Point{Lat: c[0], Lon: c[1]})
	}
	return NewPath(points), nil
}

// MarshalGeoJSON returns the path as a GeoJSON LineString with elevation as
// the third ordinate. This is the full geometry payload persisted on a route.
func MarshalGeoJSON(p Path) ([]byte, error) {
	coords := make([]geom.Coord, 0, p.Len())
	for _, pt := range p.points {
		coords = append(coords, geom.Coord{pt.Lon, pt.Lat, pt.Elevation})
	}

	line := geom.NewLineString(geom.XYZ)
	if _, err := line.SetCoords(coords); err != nil {
		return nil, fmt.Errorf("failed to build linestring: %w", err)
	}

	data, err := geojson.Marshal(line)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry: %w", err)
	}
	return data, nil
}

// UnmarshalGeoJSON parses a GeoJSON LineString payload back into a path
func UnmarshalGeoJSON(data []byte) (Path, error) {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return Path{}, fmt.Errorf("failed to unmarshal geometry: %w", err)
	}

	line, ok := g.(*geom.LineString)
	if !ok {
		return Path{}, fmt.Errorf("geometry payload is not a linestring")
	}

	points := make([]Point, 0, line.NumCoords())
	for i := 0; i < line.NumCoords(); i++ {
		c := line.Coord(i)
		pt := Point{Lon: c[0], Lat: c[1]}
		if len(c) > 2 {
			pt.Elevation = c[2]
		}
		points = append(points, pt)
	}
	return NewPath(points), nil
}
