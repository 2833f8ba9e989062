// Package tile addresses tiles in the slippy-map pyramid and derives the
// geometry the renderer needs to place them on screen.
package tile

import (
	"fmt"
	"math"

	"mapedit/internal/projection"
)

// GeoBounds is a tile's bounding box in geographic degrees. Top is the
// northern edge, Bottom the southern one.
type GeoBounds struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// PlaneBounds is a tile's bounding box in Mercator plane coordinates.
type PlaneBounds struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Tile identifies one slippy tile together with the geometry derived from its
// position. Tiles are immutable value types; construct them with At or
// FromIndex.
type Tile struct {
	Zoom int

	// Fractional tile indices of the point the tile was constructed from.
	XTile float64
	YTile float64

	// Integer tile indices as used by tile servers and cache keys.
	X int
	Y int

	Lat float64
	Lon float64

	BoundsGeo   GeoBounds
	BoundsPlane PlaneBounds

	// Plane-space extent and center of the integer-aligned tile.
	WidthX  float64
	WidthY  float64
	CenterX float64
	CenterY float64

	// Name is the canonical key "{x}_{y}_{zoom}" used for cache entries and
	// image file stems.
	Name string
}

// At constructs the tile containing the given geographic point at the given
// zoom level.
func At(lat, lon float64, zoom int) Tile {
	xt, yt := projection.GeoToTile(lat, lon, zoom)
	return build(lat, lon, xt, yt, zoom)
}

// FromIndex constructs a tile from (possibly fractional) slippy-tile indices.
// The fractional parts are preserved so that neighboring tiles can be derived
// by offsetting the indices of a center tile.
func FromIndex(xtile, ytile float64, zoom int) Tile {
	lat, lon := projection.TileToGeo(xtile, ytile, zoom)
	return build(lat, lon, xtile, ytile, zoom)
}

func build(lat, lon, xtile, ytile float64, zoom int) Tile {
	ix := int(math.Floor(xtile))
	iy := int(math.Floor(ytile))

	topLat, leftLon := projection.TileToGeo(float64(ix), float64(iy), zoom)
	bottomLat, rightLon := projection.TileToGeo(float64(ix+1), float64(iy+1), zoom)

	leftX, topY := projection.GeoToPlane(topLat, leftLon)
	rightX, bottomY := projection.GeoToPlane(bottomLat, rightLon)

	centerLat, centerLon := projection.TileToGeo(float64(ix)+0.5, float64(iy)+0.5, zoom)
	centerX, centerY := projection.GeoToPlane(centerLat, centerLon)

	return Tile{
		Zoom:  zoom,
		XTile: xtile,
		YTile: ytile,
		X:     ix,
		Y:     iy,
		Lat:   lat,
		Lon:   lon,
		BoundsGeo: GeoBounds{
			Left:   leftLon,
			Top:    topLat,
			Right:  rightLon,
			Bottom: bottomLat,
		},
		BoundsPlane: PlaneBounds{
			Left:   leftX,
			Top:    topY,
			Right:  rightX,
			Bottom: bottomY,
		},
		WidthX:  math.Abs(rightX - leftX),
		WidthY:  math.Abs(topY - bottomY),
		CenterX: centerX,
		CenterY: centerY,
		Name:    fmt.Sprintf("%d_%d_%d", ix, iy, zoom),
	}
}

// Addressable reports whether the tile actually exists in the pyramid, i.e.
// whether a tile server can have an image for it. Both indices must satisfy
// 0 <= i < 2^zoom; the upper bound is strict, x = 2^zoom is already the first
// column of the wrapped-around world.
func (t Tile) Addressable() bool {
	if t.Zoom < 0 {
		return false
	}
	n := int(math.Exp2(float64(t.Zoom)))
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}

// PixelScaleX returns the screen pixels per plane-space unit along x for a
// tile rendered at the given pixel size. Multiplying a plane distance by this
// factor yields a pixel distance.
func (t Tile) PixelScaleX(tileSize int) float64 {
	return float64(tileSize) / t.WidthX
}

// PixelScaleY is the y-axis counterpart of PixelScaleX.
func (t Tile) PixelScaleY(tileSize int) float64 {
	return float64(tileSize) / t.WidthY
}
