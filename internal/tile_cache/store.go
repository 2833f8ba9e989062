// Package tile_cache tracks which tiles of one tile source are on disk, stale
// or currently being fetched. The image bytes themselves live as plain files
// next to the metadata; the store only keeps the bookkeeping and makes the
// fetch-or-not decision atomic.
package tile_cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrCorrupt marks a metadata file that exists but cannot be parsed. This is
// deliberately distinct from an absent file: absence means a fresh cache,
// corruption means history would be silently lost and the caller must decide.
var ErrCorrupt = errors.New("tile cache metadata corrupt")

// State of a cache entry.
type State string

const (
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
)

// Entry is the per-tile record. For StateLoading, Time is the epoch second the
// fetch was enqueued at; for StateLoaded it is the epoch second the tile
// expires at.
type Entry struct {
	State State   `json:"state"`
	Time  float64 `json:"time"`
}

// document is the on-disk schema of the metadata file.
type document struct {
	Version int              `json:"version"`
	Tiles   map[string]Entry `json:"tiles"`
}

const (
	schemaVersion = 1
	metadataFile  = "database.json"
)

// Decision is the outcome of Decide.
type Decision int

const (
	// Fresh: the tile is either loaded and unexpired, or already being
	// fetched within the retry window. Nothing to do.
	Fresh Decision = iota
	// Fetch: the caller must enqueue a fetch; the entry has been marked
	// loading.
	Fetch
)

func (d Decision) String() string {
	if d == Fetch {
		return "fetch"
	}
	return "fresh"
}

// Options configure a Store. Zero values pick the defaults.
type Options struct {
	// RetryAfter is how long a tile may stay in StateLoading before a new
	// request re-enqueues it. Default 4 seconds.
	RetryAfter time.Duration
	// TTL is how long a loaded tile stays fresh. Default 7 days.
	TTL time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

// Store owns the cache metadata of a single tile source and the directory its
// tile images are written to. All mutation goes through one mutex, so
// concurrent requests for the same tile collapse to at most one fetch per
// retry window, and image writes never race the final persist.
type Store struct {
	mu    sync.Mutex
	dir   string
	tiles map[string]Entry

	retryAfter time.Duration
	ttl        time.Duration
	now        func() time.Time
}

// Open loads the metadata for the cache directory dir, creating the directory
// and an empty store if nothing is persisted yet. A present but unparsable
// metadata file yields an error wrapping ErrCorrupt.
func Open(dir string, opts Options) (*Store, error) {
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 4 * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		dir:        dir,
		tiles:      make(map[string]Entry),
		retryAfter: opts.RetryAfter,
		ttl:        opts.TTL,
		now:        opts.Clock,
	}

	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Version != schemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d", ErrCorrupt, doc.Version)
	}
	if doc.Tiles != nil {
		s.tiles = doc.Tiles
	}
	return s, nil
}

// Decide makes the atomic fetch-or-not decision for a tile. A tile unknown to
// the store, one stuck in StateLoading past the retry window, or one loaded
// but past its expiry is marked loading as of now and must be fetched by the
// caller. Everything else is fresh.
func (s *Store) Decide(name string) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := epochSeconds(s.now())

	entry, ok := s.tiles[name]
	if !ok {
		s.tiles[name] = Entry{State: StateLoading, Time: now}
		return Fetch
	}

	switch entry.State {
	case StateLoading:
		// The earlier fetch presumably failed silently; refresh this tile's
		// timestamp and try again.
		if now-entry.Time > s.retryAfter.Seconds() {
			s.tiles[name] = Entry{State: StateLoading, Time: now}
			return Fetch
		}
	case StateLoaded:
		if now > entry.Time {
			s.tiles[name] = Entry{State: StateLoading, Time: now}
			return Fetch
		}
	}
	return Fresh
}

// SaveTile writes a tile image and records the tile as loaded, both under the
// store lock so the file and the metadata cannot disagree mid-shutdown. The
// write callback receives the destination path. On write failure the entry is
// left untouched and the tile is retried on demand.
func (s *Store) SaveTile(name string, write func(path string) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := write(s.imagePath(name)); err != nil {
		return err
	}
	s.markLoadedLocked(name)
	return nil
}

// MarkLoaded records a successful fetch: the entry becomes StateLoaded with
// expiry now + TTL.
func (s *Store) MarkLoaded(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markLoadedLocked(name)
}

func (s *Store) markLoadedLocked(name string) {
	s.tiles[name] = Entry{
		State: StateLoaded,
		Time:  epochSeconds(s.now()) + s.ttl.Seconds(),
	}
}

// Entry returns a copy of the record for a tile, if any.
func (s *Store) Entry(name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tiles[name]
	return entry, ok
}

// Len returns the number of tracked tiles.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tiles)
}

// ImagePath returns the path a tile's image is (or will be) stored at. The
// file may not exist yet; callers are expected to check and fall back to a
// placeholder.
func (s *Store) ImagePath(name string) string {
	return s.imagePath(name)
}

func (s *Store) imagePath(name string) string {
	return filepath.Join(s.dir, name+".png")
}

// Persist writes the metadata back to disk atomically (write to a temp file,
// then rename). Called on orderly shutdown; losing it only costs redundant
// refetches.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(document{Version: schemaVersion, Tiles: s.tiles})
	if err != nil {
		return fmt.Errorf("failed to encode cache metadata: %w", err)
	}

	path := filepath.Join(s.dir, metadataFile)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache metadata: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace cache metadata: %w", err)
	}
	return nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
