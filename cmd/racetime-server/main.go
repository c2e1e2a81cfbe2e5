// Command racetime-server serves the race-time calculation over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/racetime/internal/api"
	"github.com/banshee-data/racetime/internal/cache"
	"github.com/banshee-data/racetime/internal/config"
	"github.com/banshee-data/racetime/internal/db"
	"github.com/banshee-data/racetime/internal/monitoring"
	"github.com/banshee-data/racetime/internal/version"
)

var (
	configPath = flag.String("config", "", "path to a JSON or YAML config file")
	listen     = flag.String("listen", "", "listen address (overrides config)")
	showVer    = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()
	if *showVer {
		log.Print(version.String())
		return
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Listen = listen
	}
	if err := monitoring.Logger().Configure(cfg.GetLogLevel(), cfg.GetLogFormat(), cfg.GetLogOutput()); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	logger := monitoring.Logger().WithComponent("server")

	store, err := db.NewDB(cfg.GetCacheDB())
	if err != nil {
		log.Fatalf("failed to open run store: %v", err)
	}
	defer store.Close()

	handler, err := newHandler(cfg, store)
	if err != nil {
		log.Fatalf("failed to build routes: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.GetListen(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (%s)", cfg.GetListen(), version.String())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
		if err := server.Close(); err != nil {
			logger.WithError(err).Warn("HTTP server force close error")
		}
	}
	logger.Info("graceful shutdown complete")
}

// newHandler mounts the API and the store's debug routes on one mux.
func newHandler(cfg *config.Config, store *db.DB) (http.Handler, error) {
	srv := api.NewServer(cache.New(cfg.GetCacheEntries(), store), api.Options{
		Units:      cfg.GetDisplayUnits(),
		AssetsHost: cfg.GetEchartsAssetsHost(),
		RateLimit:  cfg.GetRateLimit(),
		RateBurst:  cfg.GetRateBurst(),
	})

	mux := http.NewServeMux()
	mux.Handle("/", srv.Handler())
	if err := store.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}
