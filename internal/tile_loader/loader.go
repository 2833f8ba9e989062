// Package tile_loader fetches slippy tiles from remote mirrors in the
// background and keeps the per-source disk cache current. It is the only
// entry point the renderer talks to: GetTile never blocks on the network, it
// answers with the local path the tile is (or will be) stored at and schedules
// a fetch when the cache store says one is needed.
package tile_loader

import (
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mapedit/internal/imaging"
	"mapedit/internal/metrics"
	"mapedit/internal/tile"
	"mapedit/internal/tile_cache"
)

// Config describes one tile source.
type Config struct {
	// Name of the source; also the cache subdirectory name.
	Name string
	// URLs are equivalent mirror templates with {z}, {x} and {y}
	// placeholders. One is picked uniformly at random per fetch to spread
	// load across the mirrors.
	URLs []string
	// UserAgent identifies this client to the tile servers, as their usage
	// policies require.
	UserAgent string
	// Workers caps the fetch pool. Defaults to min(2, NumCPU): deliberately
	// small to respect tile-server fair-use policies.
	Workers int
	// Client overrides the HTTP client, e.g. to set a timeout.
	Client *http.Client
	// OnTileLoaded is invoked after each successful fetch so the renderer
	// can repaint. May be nil.
	OnTileLoaded func()
}

// Loader is the per-source facade over cache store, fetch queue and worker
// pool.
type Loader struct {
	name      string
	urls      []string
	userAgent string
	client    *http.Client
	onLoaded  func()

	store   *tile_cache.Store
	codec   imaging.Codec
	queue   *lifoQueue
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New builds a loader and starts its worker pool.
func New(cfg Config, store *tile_cache.Store, codec imaging.Codec, m *metrics.Metrics, logger *zap.Logger) *Loader {
	workers := cfg.Workers
	if workers <= 0 {
		workers = min(2, runtime.NumCPU())
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	l := &Loader{
		name:      cfg.Name,
		urls:      cfg.URLs,
		userAgent: cfg.UserAgent,
		client:    client,
		onLoaded:  cfg.OnTileLoaded,
		store:     store,
		codec:     codec,
		queue:     newLIFOQueue(),
		logger:    logger,
		metrics:   m,
	}

	for i := 0; i < workers; i++ {
		go l.worker()
	}

	logger.Info("tile loader started",
		zap.String("source", l.name),
		zap.Int("workers", workers),
		zap.Int("mirrors", len(l.urls)),
		zap.Int("cached_tiles", store.Len()),
	)

	return l
}

// Name returns the source name.
func (l *Loader) Name() string {
	return l.name
}

// CachedTiles returns the number of tiles tracked by the cache store.
func (l *Loader) CachedTiles() int {
	return l.store.Len()
}

// GetTile answers a renderer request for one tile. Non-addressable tiles
// yield ok=false and cause no work at all. Otherwise the returned path is
// where the tile image is or will be stored; the caller must check for the
// file and fall back to a placeholder until it appears. Safe and cheap to
// call for every visible tile on every repaint.
func (l *Loader) GetTile(t tile.Tile) (path string, ok bool) {
	if !t.Addressable() {
		return "", false
	}

	decision := l.store.Decide(t.Name)
	l.metrics.IncCacheDecision(l.name, decision.String())

	if decision == tile_cache.Fetch {
		j := job{ID: uuid.New(), Tile: t}
		if l.queue.Push(j) {
			l.metrics.SetQueueDepth(l.name, l.queue.Len())
			l.logger.Debug("tile fetch queued",
				zap.String("source", l.name),
				zap.String("tile", t.Name),
				zap.String("job_id", j.ID.String()),
			)
		}
	}

	return l.store.ImagePath(t.Name), true
}

// Close stops accepting and handing out jobs, abandons whatever is still
// queued or in flight, and persists the cache metadata. Best effort by
// design: an abandoned fetch is retried on demand after the retry window.
func (l *Loader) Close() {
	l.queue.Close()
	if err := l.store.Persist(); err != nil {
		l.logger.Warn("failed to persist tile cache",
			zap.String("source", l.name),
			zap.Error(err),
		)
		return
	}
	l.logger.Info("tile cache persisted",
		zap.String("source", l.name),
		zap.Int("tiles", l.store.Len()),
	)
}

func (l *Loader) worker() {
	for {
		j, ok := l.queue.Pop()
		if !ok {
			return
		}
		l.metrics.SetQueueDepth(l.name, l.queue.Len())

		if err := l.fetch(j); err != nil {
			// The cache entry stays in loading state with its original
			// timestamp, so the next request past the retry window simply
			// tries again. Nothing else to unwind.
			l.metrics.IncTileFetch(l.name, "error")
			l.logger.Warn("tile fetch failed",
				zap.String("source", l.name),
				zap.String("tile", j.Tile.Name),
				zap.String("job_id", j.ID.String()),
				zap.Error(err),
			)
			continue
		}

		l.metrics.IncTileFetch(l.name, "ok")
		l.logger.Debug("tile loaded",
			zap.String("source", l.name),
			zap.String("tile", j.Tile.Name),
			zap.String("job_id", j.ID.String()),
		)

		if l.onLoaded != nil {
			l.onLoaded()
		}
	}
}

func (l *Loader) fetch(j job) error {
	if len(l.urls) == 0 {
		return fmt.Errorf("no mirror urls configured for source %q", l.name)
	}
	url := expandTemplate(l.urls[rand.IntN(len(l.urls))], j.Tile)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mirror returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read tile body: %w", err)
	}

	// Decode happens outside the store lock; only the disk write and the
	// loaded transition are serialized.
	return l.store.SaveTile(j.Tile.Name, func(path string) error {
		return l.codec.Transcode(body, path)
	})
}

// expandTemplate substitutes the tile coordinates into a mirror URL template.
func expandTemplate(template string, t tile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(t.Zoom),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	).Replace(template)
}
