package util

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PointInPolygon reports whether point lies inside polygon, boundary included.
func PointInPolygon(polygon orb.Polygon, point orb.Point) bool {
	if len(polygon) == 0 || len(polygon[0]) < 4 {
		return false
	}
	return planar.PolygonContains(polygon, point)
}

// PolygonArea returns the unsigned planar area of polygon.
func PolygonArea(polygon orb.Polygon) float64 {
	return planar.Area(polygon)
}
