package projection

import (
	"math"
	"testing"
)

func TestGeoToTileZoomZeroCenter(t *testing.T) {
	x, y := GeoToTile(0, 0, 0)
	if math.Abs(x-0.5) > 1e-12 || math.Abs(y-0.5) > 1e-12 {
		t.Fatalf("GeoToTile(0,0,0) = (%v, %v), want (0.5, 0.5)", x, y)
	}
}

func TestTileRoundTrip(t *testing.T) {
	// Tile centers across the pyramid must survive a tile->geo->tile round
	// trip with sub-microdegree precision.
	for zoom := 0; zoom <= 18; zoom++ {
		n := int(math.Exp2(float64(zoom)))
		for _, frac := range []float64{0.0, 0.25, 0.5} {
			xs := []int{0, n / 2, n - 1}
			for _, xi := range xs {
				for _, yi := range xs {
					xt := float64(xi) + 0.5
					yt := float64(yi) + 0.5
					lat, lon := TileToGeo(xt+frac/2, yt+frac/2, zoom)
					gotX, gotY := GeoToTile(lat, lon, zoom)
					if math.Abs(gotX-(xt+frac/2)) > 1e-6 || math.Abs(gotY-(yt+frac/2)) > 1e-6 {
						t.Fatalf("zoom %d tile (%v,%v): round trip gave (%v,%v)", zoom, xt, yt, gotX, gotY)
					}
				}
			}
		}
	}
}

func TestPlaneRoundTrip(t *testing.T) {
	lats := []float64{-85, -60, -10, 0, 10, 45, 60, 85}
	lons := []float64{-179.9, -90, 0, 13.37, 90, 179.9}
	for _, lat := range lats {
		for _, lon := range lons {
			x, y := GeoToPlane(lat, lon)
			gotLat, gotLon := PlaneToGeo(x, y)
			if math.Abs(gotLat-lat) > 1e-9 || math.Abs(gotLon-lon) > 1e-9 {
				t.Fatalf("geo (%v,%v): round trip gave (%v,%v)", lat, lon, gotLat, gotLon)
			}
			gotX, gotY := GeoToPlane(gotLat, gotLon)
			if math.Abs(gotX-x) > 1e-9 || math.Abs(gotY-y) > 1e-9 {
				t.Fatalf("plane (%v,%v): round trip gave (%v,%v)", x, y, gotX, gotY)
			}
		}
	}
}

func TestWorldTileSpansMaxLatitude(t *testing.T) {
	// The single zoom-0 tile covers the whole Mercator world.
	topLat, leftLon := TileToGeo(0, 0, 0)
	bottomLat, rightLon := TileToGeo(1, 1, 0)

	if math.Abs(topLat-MaxLatitude) > 1e-9 {
		t.Errorf("top latitude = %v, want %v", topLat, MaxLatitude)
	}
	if math.Abs(bottomLat+MaxLatitude) > 1e-9 {
		t.Errorf("bottom latitude = %v, want %v", bottomLat, -MaxLatitude)
	}
	if leftLon != -180 || rightLon != 180 {
		t.Errorf("longitude span = [%v, %v], want [-180, 180]", leftLon, rightLon)
	}
}

func TestEquatorPlaneIdentity(t *testing.T) {
	// On the equator the plane coordinates are just (lon, 0).
	x, y := GeoToPlane(0, 42)
	if x != 42 || math.Abs(y) > 1e-12 {
		t.Fatalf("GeoToPlane(0, 42) = (%v, %v), want (42, 0)", x, y)
	}
}
