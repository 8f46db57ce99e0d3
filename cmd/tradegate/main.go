// Command tradegate serves the trade-finance counterparty decision
// engine: sanctions screening, credit-risk scoring and batch
// evaluation over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/meridianfin/tradegate/internal/api"
	"github.com/meridianfin/tradegate/internal/batch"
	"github.com/meridianfin/tradegate/internal/cache"
	"github.com/meridianfin/tradegate/internal/classifier"
	"github.com/meridianfin/tradegate/internal/config"
	"github.com/meridianfin/tradegate/internal/engine"
	"github.com/meridianfin/tradegate/internal/features"
	"github.com/meridianfin/tradegate/internal/graph"
	"github.com/meridianfin/tradegate/internal/sanctions"
	"github.com/meridianfin/tradegate/internal/screening"
	"github.com/meridianfin/tradegate/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	// Local development convenience; ignored when no .env exists.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	sugar := log.Sugar()

	store, err := graph.Open(cfg.Store, log)
	if err != nil {
		sugar.Fatalw("relationship store unavailable", "error", err)
	}
	defer store.Close()

	list, err := sanctions.LoadCSV(cfg.Sanctions.Path, screening.Normalize)
	if err != nil {
		sugar.Fatalw("sanctions feed load failed", "path", cfg.Sanctions.Path, "error", err)
	}
	sugar.Infow("sanctions feed loaded", "path", cfg.Sanctions.Path, "records", list.Len())

	countries, err := screening.NewCountryTable(sugar)
	if err != nil {
		sugar.Fatalw("country risk table load failed", "error", err)
	}

	model, err := classifier.Load(cfg.Scoring.ModelPath, sugar)
	if err != nil {
		sugar.Fatalw("model artifact load failed", "path", cfg.Scoring.ModelPath, "error", err)
	}

	screener := screening.NewScreener(store, list, countries, cfg.Screening, sugar)
	extractor := features.NewExtractor(store, countries, sugar)
	eng := engine.New(screener, extractor, model, cfg.Scoring.Config, sugar)
	orchestrator := batch.New(eng, cfg.Batch, sugar)

	var scrCache *cache.ScreeningCache
	if cfg.Cache.Enabled {
		scrCache = cache.New(cfg.Cache.Config, sugar)
		defer scrCache.Close()
	}

	server := api.NewServer(eng, orchestrator, scrCache, log)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(cfg.Server.AllowOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
