// Package projection implements the spherical Web Mercator transforms used to
// place geographic coordinates on the tile plane.
//
// Three coordinate systems are involved:
//   - geographic: latitude/longitude in degrees (WGS84)
//   - plane: the Mercator plane, where x equals longitude and y is the warped
//     latitude, so equal pixel spacing corresponds to equal tile spacing
//   - tile: fractional slippy-tile indices at a given zoom level
//
// All functions are pure and operate in float64. Latitudes beyond the Mercator
// singularity (about ±85.05°) are not meaningful inputs.
package projection

import "math"

// MaxLatitude is the largest latitude representable on the tile plane,
// atan(sinh(pi)) in degrees. The zoom-0 tile spans [-MaxLatitude, MaxLatitude].
const MaxLatitude = 85.05112877980659

// GeoToPlane converts a geographic point to Mercator plane coordinates.
func GeoToPlane(lat, lon float64) (x, y float64) {
	x = lon
	y = 180.0 / math.Pi * math.Log(math.Tan(math.Pi/4.0+lat*(math.Pi/180.0)/2.0))
	return x, y
}

// PlaneToGeo converts Mercator plane coordinates back to a geographic point.
func PlaneToGeo(x, y float64) (lat, lon float64) {
	lat = 180.0 / math.Pi * (2.0*math.Atan(math.Exp(y*math.Pi/180.0)) - math.Pi/2.0)
	lon = x
	return lat, lon
}

// GeoToTile converts a geographic point to fractional slippy-tile indices at
// the given zoom level. The integer parts address a tile on a tile server, the
// fractional parts give the position inside that tile.
func GeoToTile(lat, lon float64, zoom int) (xtile, ytile float64) {
	latRad := lat * math.Pi / 180.0
	n := math.Exp2(float64(zoom))
	xtile = (lon + 180.0) / 360.0 * n
	ytile = (1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n
	return xtile, ytile
}

// TileToGeo converts fractional slippy-tile indices at the given zoom level to
// the geographic point at that position. It is the exact inverse of GeoToTile.
func TileToGeo(xtile, ytile float64, zoom int) (lat, lon float64) {
	n := math.Exp2(float64(zoom))
	lon = xtile/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1.0 - 2.0*ytile/n)))
	lat = latRad * 180.0 / math.Pi
	return lat, lon
}
