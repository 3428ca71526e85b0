package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"quote-observer/src/config"
	datasource "quote-observer/src/data_source"
	"quote-observer/src/data_source/binance"
	"quote-observer/src/grpc_control"
	"quote-observer/src/interfaces"
	"quote-observer/src/logger"
	"quote-observer/src/metrics"
	"quote-observer/src/network"
	"quote-observer/src/server"
	"quote-observer/src/storage"
)

const shutdownTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// 1. Load config (file, .env, environment)
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Configure(config.MConfig)
	appLogger := logger.NewLogger(config.Name)
	appMetrics := metrics.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 2. Store
	store, err := storage.NewStore(config.MConfig)
	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if fs, ok := store.(*storage.FileStore); ok {
		fs.OnSaveError = appMetrics.RecordSaveFailure
	}
	if err := store.Open(ctx); err != nil {
		appLogger.Critical("Failed to open %s store: %v", store.Name(), err)
	}
	appLogger.Info("Using %s store", store.Name())

	// 3. Upstream and poll loop
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(config.MConfig, logger.NewLogger("NetworkManager"))
	var provider interfaces.IQuoteProvider = binance.NewBinanceSource(config.MConfig, networkManager)

	poller := datasource.NewPoller(config.MConfig, store, provider, appMetrics)
	sweeper := datasource.NewRetentionSweeper(config.MConfig, store, appMetrics)

	// 4. Optional candle cache
	var cache server.ICandleCache
	redisCache, err := server.NewRedisCandleCache(ctx, config.Cache)
	if err != nil {
		appLogger.Warning("Candle cache disabled: %v", err)
	} else if redisCache != nil {
		defer redisCache.Close()
		cache = redisCache
		appLogger.Info("Candle cache on %s", config.Cache.RedisAddr)
	}

	// 5. HTTP + websocket
	srv := server.NewFastAPIServer(config.MConfig, store, cache, poller, appMetrics)
	poller.Broadcaster = srv

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
			cancel()
		}
	}()

	// 6. gRPC health
	control := grpc_control.NewControlServer(config.MConfig)
	if control != nil {
		go func() {
			if err := control.Start(); err != nil {
				appLogger.Error("gRPC server failed: %v", err)
			}
		}()
	}

	// 7. Background loops
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()
	if control != nil {
		go control.WatchPoller(ctx, poller, poller.Interval, 3*poller.Interval+poller.CycleTimeout)
	}

	<-ctx.Done()
	appLogger.Info("Shutting down...")

	// Stop producing, then drain readers, then persist.
	if control != nil {
		control.SetServing(grpc_control.ServiceStore, false)
	}
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		appLogger.Warning("HTTP shutdown: %v", err)
	}
	if control != nil {
		control.Stop()
	}

	if err := store.Flush(shutdownCtx); err != nil {
		appLogger.Error("Final flush failed: %v", err)
	}
	if err := store.Close(); err != nil {
		appLogger.Error("Closing store failed: %v", err)
	}
	appLogger.Info("Stopped")
}
