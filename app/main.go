package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"streamcomb/app/api"
	"streamcomb/app/cache"
	"streamcomb/app/catalog"
	"streamcomb/app/cfg"
	"streamcomb/app/crawl"
	"streamcomb/app/store"
	"streamcomb/app/tasks"
	"streamcomb/app/tmdb"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Stream Comb server", "version", appCfg.Version)

	if err := os.MkdirAll(appCfg.DataDir, 0755); err != nil {
		slog.Error("Failed to create data directory", "dir", appCfg.DataDir, "error", err)
		os.Exit(1)
	}

	metadataCache, err := cache.New(appCfg.CacheDBPath)
	if err != nil {
		slog.Error("Failed to open metadata cache", "path", appCfg.CacheDBPath, "error", err)
		os.Exit(1)
	}
	defer metadataCache.Close()

	registry, err := catalog.LoadRegistry(appCfg.ProvidersFile)
	if err != nil {
		slog.Error("Failed to load provider registry", "file", appCfg.ProvidersFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Provider registry loaded", "providers", registry.Count())

	httpClient := &http.Client{Timeout: 30 * time.Second}
	tmdbClient := tmdb.NewClient(httpClient, metadataCache)

	cacheTTL := time.Duration(appCfg.CacheTTL) * time.Second
	genreCache := catalog.NewGenreCache(tmdbClient, metadataCache, cacheTTL)

	aggregates := store.NewFileAggregateRepository(filepath.Join(appCfg.DataDir, "films.json"))
	cursors := store.NewFileCursorRepository(filepath.Join(appCfg.DataDir, "metadata.json"))

	opts := crawl.DefaultOptions()
	opts.CacheTTL = cacheTTL
	opts.StartYear = appCfg.StartYear
	engine := crawl.NewEngine(tmdbClient, genreCache, aggregates, cursors, registry, opts)

	var scheduler tasks.TaskSchedulerInterface
	if appCfg.AutoCrawl {
		slog.Info("Starting background crawl scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.CrawlInterval)
		scheduler = tasks.NewScheduler(engine, metadataCache)
		scheduler.Start()
		defer scheduler.Stop()
	}

	apiHandler := api.NewHandler(engine, aggregates)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}
