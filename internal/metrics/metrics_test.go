package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := New()

	m.IncTileFetch("osm", "ok")
	m.IncTileFetch("osm", "error")
	m.IncCacheDecision("osm", "fetch")
	m.SetQueueDepth("osm", 3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`mapedit_tile_fetches_total{result="ok",source="osm"} 1`,
		`mapedit_tile_fetches_total{result="error",source="osm"} 1`,
		`mapedit_tile_cache_decisions_total{decision="fetch",source="osm"} 1`,
		`mapedit_tile_fetch_queue_depth{source="osm"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncTileFetch("osm", "ok")
	m.IncCacheDecision("osm", "fresh")
	m.SetQueueDepth("osm", 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
