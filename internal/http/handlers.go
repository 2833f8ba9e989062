// Package http exposes the tile engine over a small preview server, so any
// slippy-map client can be pointed at the editor's cache while fetches run in
// the background.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mapedit/internal/config"
	"mapedit/internal/tile"
	"mapedit/internal/tile_loader"
)

// maxMemoryTiles bounds the in-memory LRU of served tile files.
const maxMemoryTiles = 2000

type Handlers struct {
	config  *config.Config
	logger  *zap.Logger
	loaders map[string]*tile_loader.Loader
	tiles   *tileLRU
}

func New(config *config.Config, logger *zap.Logger, loaders map[string]*tile_loader.Loader) *Handlers {
	return &Handlers{
		config:  config,
		logger:  logger,
		loaders: loaders,
		tiles:   newTileLRU(maxMemoryTiles),
	}
}

func (h *Handlers) RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		h.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Int64("bytes", wrapped.bytesWritten),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// HandleSources lists the configured tile sources.
func (h *Handlers) HandleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	type sourceInfo struct {
		Name        string `json:"name"`
		CachedTiles int    `json:"cached_tiles"`
	}

	sources := make([]sourceInfo, 0, len(h.loaders))
	for _, src := range h.config.EnabledSources() {
		loader, ok := h.loaders[src.Name]
		if !ok {
			continue
		}
		sources = append(sources, sourceInfo{Name: src.Name, CachedTiles: loader.CachedTiles()})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sources)
}

func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// HandleTileRoutes serves /tiles/{source}/{z}/{x}/{y}.png. The response is
// whatever the engine has right now: the cached tile if it is on disk, the
// placeholder while the background fetch runs. Placeholder responses are
// marked uncacheable so the client asks again on its next repaint.
func (h *Handlers) HandleTileRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/tiles/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	loader, ok := h.loaders[parts[0]]
	if !ok {
		http.Error(w, "Unknown tile source", http.StatusNotFound)
		return
	}

	var z, x, y int
	if _, err := fmt.Sscanf(parts[1], "%d", &z); err != nil {
		http.Error(w, "Invalid zoom level", http.StatusBadRequest)
		return
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &x); err != nil {
		http.Error(w, "Invalid x coordinate", http.StatusBadRequest)
		return
	}
	yPart := strings.TrimSuffix(parts[3], ".png")
	if _, err := fmt.Sscanf(yPart, "%d", &y); err != nil {
		http.Error(w, "Invalid y coordinate", http.StatusBadRequest)
		return
	}

	tilePath, ok := loader.GetTile(tile.FromIndex(float64(x), float64(y), z))
	if !ok {
		http.Error(w, "No such tile", http.StatusNotFound)
		return
	}

	if info, err := os.Stat(tilePath); err == nil {
		h.serveTileFile(w, tilePath, info.ModTime().UnixNano())
		return
	}

	// Not on disk yet; the fetch is queued. Hand out the placeholder.
	// ServeFile picks the content type from the extension.
	w.Header().Set("Cache-Control", "no-store")
	if h.config.PlaceholderImage != "" {
		if _, err := os.Stat(h.config.PlaceholderImage); err == nil {
			http.ServeFile(w, r, h.config.PlaceholderImage)
			return
		}
		h.logger.Warn("placeholder image missing", zap.String("path", h.config.PlaceholderImage))
	}
	http.Error(w, "Tile not loaded yet", http.StatusNotFound)
}

// serveTileFile answers with the tile bytes, going through the in-memory LRU.
// The file's mtime is part of the cache key, so a refetched tile replaces its
// stale copy naturally.
func (h *Handlers) serveTileFile(w http.ResponseWriter, path string, mtime int64) {
	key := lruKey{path: path, mtime: mtime}

	data, ok := h.tiles.Get(key)
	if !ok {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			h.logger.Error("failed to read tile file", zap.String("path", path), zap.Error(err))
			http.Error(w, "Failed to read tile", http.StatusInternalServerError)
			return
		}
		h.tiles.Set(key, data)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.Write(data)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
