// Package geomatch decides whether a watch point lies inside or on the
// boundary of a MOWAS polygon. The Python original delegates this to
// shapely's Point.within/Point.intersects; there is no equivalent
// point-in-polygon-with-boundary-inclusion library in the example pack,
// so this one piece is implemented directly against the standard ray
// casting algorithm (see DESIGN.md for the stdlib justification).
package geomatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// ParsePolygon converts a MOWAS polygon string — whitespace-separated
// "lon,lat" tokens — into a slice of (lat, lon) pairs. An open ring (first
// and last vertex differing) is closed by duplicating the first vertex.
func ParsePolygon(raw string) ([]model.LatLon, error) {
	tokens := strings.Fields(raw)
	if len(tokens) < 3 {
		return nil, fmt.Errorf("polygon has fewer than 3 vertices: %q", raw)
	}

	points := make([]model.LatLon, 0, len(tokens)+1)
	for _, tok := range tokens {
		parts := strings.SplitN(tok, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed polygon vertex %q", tok)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed longitude in %q: %w", tok, err)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed latitude in %q: %w", tok, err)
		}
		points = append(points, model.LatLon{Lat: lat, Lon: lon})
	}

	first, last := points[0], points[len(points)-1]
	if first.Lat != last.Lat || first.Lon != last.Lon {
		points = append(points, first)
	}

	return points, nil
}

const epsilon = 1e-9

// Match reports whether p lies strictly inside polygon or on its boundary.
// polygon is assumed closed (ParsePolygon guarantees this); an open ring
// is also accepted by treating the first vertex as implicitly repeated at
// the end.
func Match(polygon []model.LatLon, p model.LatLon) bool {
	if len(polygon) < 3 {
		return false
	}

	ring := polygon
	first, last := ring[0], ring[len(ring)-1]
	if first.Lat != last.Lat || first.Lon != last.Lon {
		ring = append(append([]model.LatLon{}, ring...), first)
	}

	if onBoundary(ring, p) {
		return true
	}
	return rayCast(ring, p)
}

func onBoundary(ring []model.LatLon, p model.LatLon) bool {
	for i := 0; i < len(ring)-1; i++ {
		a, b := ring[i], ring[i+1]
		if pointOnSegment(a, b, p) {
			return true
		}
	}
	return false
}

func pointOnSegment(a, b, p model.LatLon) bool {
	cross := (p.Lon-a.Lon)*(b.Lat-a.Lat) - (p.Lat-a.Lat)*(b.Lon-a.Lon)
	if cross > epsilon || cross < -epsilon {
		return false
	}
	minLat, maxLat := minMax(a.Lat, b.Lat)
	minLon, maxLon := minMax(a.Lon, b.Lon)
	return p.Lat >= minLat-epsilon && p.Lat <= maxLat+epsilon &&
		p.Lon >= minLon-epsilon && p.Lon <= maxLon+epsilon
}

func minMax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// rayCast implements the standard even-odd crossing-number test using
// latitude as x and longitude as y (orientation does not matter for
// point-in-polygon).
func rayCast(ring []model.LatLon, p model.LatLon) bool {
	inside := false
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := ring[i], ring[j]
		if (vi.Lon > p.Lon) != (vj.Lon > p.Lon) {
			slopeIntersect := (vj.Lat-vi.Lat)*(p.Lon-vi.Lon)/(vj.Lon-vi.Lon) + vi.Lat
			if p.Lat < slopeIntersect {
				inside = !inside
			}
		}
	}
	return inside
}
