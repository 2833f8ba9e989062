package tile

import (
	"math"
	"testing"
)

func TestAddressableBounds(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		zoom int
		want bool
	}{
		{"origin zoom 0", 0, 0, 0, true},
		{"x at grid edge zoom 0", 1, 0, 0, false},
		{"y at grid edge zoom 0", 0, 1, 0, false},
		{"negative x", -0.5, 0, 3, false},
		{"negative y", 0, -0.5, 3, false},
		{"interior zoom 3", 7.9, 7.9, 3, true},
		{"x at grid edge zoom 3", 8, 0, 3, false},
		{"y at grid edge zoom 3", 0, 8, 3, false},
		{"last tile zoom 3", 7, 7, 3, true},
		{"fractional inside last tile", 7.999, 7.999, 3, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FromIndex(tc.x, tc.y, tc.zoom).Addressable()
			if got != tc.want {
				t.Errorf("FromIndex(%v, %v, %d).Addressable() = %v, want %v", tc.x, tc.y, tc.zoom, got, tc.want)
			}
		})
	}
}

func TestCanonicalName(t *testing.T) {
	tl := FromIndex(4.7, 2.1, 5)
	if tl.Name != "4_2_5" {
		t.Fatalf("Name = %q, want %q", tl.Name, "4_2_5")
	}
	if tl.X != 4 || tl.Y != 2 {
		t.Fatalf("integer indices = (%d, %d), want (4, 2)", tl.X, tl.Y)
	}
}

func TestWorldTileBounds(t *testing.T) {
	world := FromIndex(0, 0, 0)

	if math.Abs(world.BoundsGeo.Top-85.05112877980659) > 1e-6 {
		t.Errorf("top = %v, want ~85.0511", world.BoundsGeo.Top)
	}
	if math.Abs(world.BoundsGeo.Bottom+85.05112877980659) > 1e-6 {
		t.Errorf("bottom = %v, want ~-85.0511", world.BoundsGeo.Bottom)
	}
	if world.BoundsGeo.Left != -180 || world.BoundsGeo.Right != 180 {
		t.Errorf("lon span = [%v, %v], want [-180, 180]", world.BoundsGeo.Left, world.BoundsGeo.Right)
	}
	// The Mercator plane is square: the world tile spans 360 units both ways.
	if math.Abs(world.WidthX-360) > 1e-9 || math.Abs(world.WidthY-360) > 1e-9 {
		t.Errorf("plane widths = (%v, %v), want (360, 360)", world.WidthX, world.WidthY)
	}
}

func TestConstructorsAgree(t *testing.T) {
	byGeo := At(48.137, 11.575, 12)
	byIndex := FromIndex(byGeo.XTile, byGeo.YTile, 12)
	if byGeo.Name != byIndex.Name {
		t.Fatalf("names differ: %q vs %q", byGeo.Name, byIndex.Name)
	}
	if math.Abs(byGeo.Lat-byIndex.Lat) > 1e-6 || math.Abs(byGeo.Lon-byIndex.Lon) > 1e-6 {
		t.Fatalf("positions differ: (%v,%v) vs (%v,%v)", byGeo.Lat, byGeo.Lon, byIndex.Lat, byIndex.Lon)
	}
}

func TestPixelScale(t *testing.T) {
	world := FromIndex(0, 0, 0)
	// 256 pixels across 360 plane units.
	want := 256.0 / 360.0
	if math.Abs(world.PixelScaleX(256)-want) > 1e-12 {
		t.Errorf("PixelScaleX = %v, want %v", world.PixelScaleX(256), want)
	}
	if math.Abs(world.PixelScaleY(256)-want) > 1e-12 {
		t.Errorf("PixelScaleY = %v, want %v", world.PixelScaleY(256), want)
	}

	// One zoom level in doubles the scale.
	zoomed := FromIndex(0, 0, 1)
	if math.Abs(zoomed.PixelScaleX(256)-2*want) > 1e-9 {
		t.Errorf("zoom 1 PixelScaleX = %v, want %v", zoomed.PixelScaleX(256), 2*want)
	}
}

func TestVisibleGrid(t *testing.T) {
	center := At(48.137, 11.575, 10)
	v := Viewport{CenterX: center.CenterX, CenterY: center.CenterY, Zoom: 10, Width: 1024, Height: 768}

	tiles := v.Visible(256)

	// Width 1024 -> 4 tiles across -> radius 3; height 768 -> radius 2.
	wantCount := (2*3 + 1) * (2*2 + 1)
	if len(tiles) != wantCount {
		t.Fatalf("len(tiles) = %d, want %d", len(tiles), wantCount)
	}

	seen := make(map[string]bool, len(tiles))
	foundCenter := false
	for _, tl := range tiles {
		if seen[tl.Name] {
			t.Fatalf("duplicate tile %q in grid", tl.Name)
		}
		seen[tl.Name] = true
		if !tl.Addressable() {
			t.Fatalf("non-addressable tile %q in grid", tl.Name)
		}
		if tl.Name == center.Name {
			foundCenter = true
		}
	}
	if !foundCenter {
		t.Fatal("center tile missing from grid")
	}
}

func TestVisibleSkipsGridEdge(t *testing.T) {
	// A viewport centered on the single zoom-0 tile: the neighborhood walk
	// must only yield the one addressable tile.
	world := FromIndex(0.5, 0.5, 0)
	v := Viewport{CenterX: world.CenterX, CenterY: world.CenterY, Zoom: 0, Width: 800, Height: 600}

	tiles := v.Visible(256)
	if len(tiles) != 1 {
		t.Fatalf("len(tiles) = %d, want 1", len(tiles))
	}
	if tiles[0].Name != "0_0_0" {
		t.Fatalf("tile = %q, want 0_0_0", tiles[0].Name)
	}
}
