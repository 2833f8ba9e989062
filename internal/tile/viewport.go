package tile

import (
	"math"

	"mapedit/internal/projection"
)

// Viewport describes the renderer's current view: the plane-space center, the
// zoom level and the screen size in pixels. The renderer owns it; this package
// only consumes it to enumerate the visible tile grid.
type Viewport struct {
	CenterX float64
	CenterY float64
	Zoom    int
	Width   int
	Height  int
}

// Center returns the tile containing the viewport center.
func (v Viewport) Center() Tile {
	lat, lon := projection.PlaneToGeo(v.CenterX, v.CenterY)
	return At(lat, lon, v.Zoom)
}

// Visible enumerates the tiles needed to cover the viewport, center tile
// included, in a square neighborhood. Non-addressable tiles (beyond the poles
// or the antimeridian grid edge) are skipped. The radius per axis is
// ceil((ceil(screenDim/tileSize)+1)/2): enough tile widths to span the screen
// plus one for partial overlap, halved for the symmetric walk.
func (v Viewport) Visible(tileSize int) []Tile {
	center := v.Center()

	radiusX := gridRadius(v.Width, tileSize)
	radiusY := gridRadius(v.Height, tileSize)

	tiles := make([]Tile, 0, (2*radiusX+1)*(2*radiusY+1))
	for a := -radiusX; a <= radiusX; a++ {
		for b := -radiusY; b <= radiusY; b++ {
			t := FromIndex(center.XTile+float64(a), center.YTile+float64(b), v.Zoom)
			if !t.Addressable() {
				continue
			}
			tiles = append(tiles, t)
		}
	}
	return tiles
}

func gridRadius(screenDim, tileSize int) int {
	across := math.Ceil(float64(screenDim) / float64(tileSize))
	return int(math.Ceil((across + 1) / 2))
}
