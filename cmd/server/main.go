package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cshum/vipsgen/vips"
	"go.uber.org/zap"

	"mapedit/internal/config"
	httphandlers "mapedit/internal/http"
	"mapedit/internal/imaging"
	"mapedit/internal/logger"
	"mapedit/internal/metrics"
	"mapedit/internal/tile_cache"
	"mapedit/internal/tile_loader"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	vipsConfig := &vips.Config{
		ConcurrencyLevel: cfg.VipsConcurrency,
		MaxCacheMem:      cfg.VipsMaxCacheMB * 1024 * 1024,
		MaxCacheFiles:    0,
		MaxCacheSize:     0,
	}
	vips.SetLogging(func(domain string, level vips.LogLevel, message string) {
		if level >= vips.LogLevelError {
			log.Error("vips", zap.String("domain", domain), zap.String("message", message))
		} else if level >= vips.LogLevelWarning {
			log.Warn("vips", zap.String("domain", domain), zap.String("message", message))
		}
	}, vips.LogLevelError)
	vips.Startup(vipsConfig)
	defer vips.Shutdown()

	m := metrics.New()
	codec := imaging.NewVipsCodec()

	loaders := make(map[string]*tile_loader.Loader)
	for _, src := range cfg.EnabledSources() {
		store, err := tile_cache.Open(filepath.Join(cfg.CacheDir, src.Name), tile_cache.Options{
			RetryAfter: cfg.RetryWindow(),
			TTL:        config.TileTTL,
		})
		if err != nil {
			log.Fatal("failed to open tile cache",
				zap.String("source", src.Name),
				zap.Error(err),
			)
		}

		loaders[src.Name] = tile_loader.New(tile_loader.Config{
			Name:      src.Name,
			URLs:      src.URLs,
			UserAgent: cfg.UserAgent,
		}, store, codec, m, log)
	}

	log.Info("starting map edit tile server",
		zap.Int("port", cfg.Port),
		zap.String("cache_dir", cfg.CacheDir),
		zap.Int("sources", len(loaders)),
	)

	handlers := httphandlers.New(cfg, log, loaders)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sources", handlers.HandleSources)
	mux.HandleFunc("/tiles/", handlers.HandleTileRoutes)
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handlers.RequestLoggingMiddleware(mux),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.Int("port", cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop the fetch pools and persist what each cache learned. In-flight
	// downloads are abandoned; they will be refetched on demand.
	for _, loader := range loaders {
		loader.Close()
	}

	log.Info("Server stopped")
}
