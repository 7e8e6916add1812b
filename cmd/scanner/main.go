package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/vitos/ltp_scanner/internal/config"
	"github.com/vitos/ltp_scanner/internal/domain"
	"github.com/vitos/ltp_scanner/internal/infrastructure/cache"
	"github.com/vitos/ltp_scanner/internal/infrastructure/exchange"
	"github.com/vitos/ltp_scanner/internal/infrastructure/logger"
	"github.com/vitos/ltp_scanner/internal/infrastructure/storage"
	"github.com/vitos/ltp_scanner/internal/usecase"
	"github.com/vitos/ltp_scanner/internal/web"
	"go.uber.org/zap"
)

type closableStore interface {
	domain.SetupStore
	io.Closer
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (closableStore, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		poolCfg := storage.DefaultPoolConfig()
		if cfg.Storage.MaxConns > 0 {
			poolCfg.MaxConns = cfg.Storage.MaxConns
		}
		if cfg.Storage.MinConns > 0 {
			poolCfg.MinConns = cfg.Storage.MinConns
		}
		pool, err := storage.NewPool(ctx, cfg.Storage.PostgresURL, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("Using postgres store")
		return storage.NewPostgresStore(pool), nil
	case "memory":
		log.Warn("Using in-memory store, nothing survives a restart")
		return storage.NewMemoryStore(), nil
	case "sqlite":
		log.Info("Using sqlite store", zap.String("path", cfg.Storage.SQLitePath))
		return storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Init Storage
	baseStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to init store", zap.Error(err))
	}
	defer baseStore.Close()

	var store domain.SetupStore = baseStore
	if cfg.Cache.Enabled {
		setupCache := cache.NewSetupCache(baseStore, cache.Config{
			Address:  cfg.Cache.Address,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		}, log)
		defer setupCache.Close()
		store = setupCache
	}

	// 4. Init Exchange
	bybit := exchange.NewBybitAdapter(cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint, log)
	defer bybit.Close()

	// 5. Init Service
	scanCfg := cfg.ScanConfig()
	svc := usecase.NewSetupService(bybit, store, store, cfg.EngineConfig(), scanCfg, log)

	journal := log
	if cfg.Scanner.JournalPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Scanner.JournalPath), 0o755); err == nil {
			if jl, err := logger.NewFileLogger(cfg.Scanner.JournalPath, "info"); err == nil {
				journal = jl
				defer jl.Sync()
			} else {
				log.Error("Failed to init journal, using default logger", zap.Error(err))
			}
		}
	}

	// 6. Scan worker: structure refresh + periodic scans
	worker := usecase.NewScanWorker(svc, cfg.Scanner.Symbols, cfg.Scanner.Interval, cfg.Scanner.StructureRefresh, journal, log)
	worker.Start(ctx)

	// 7. Rescan on every closed bar
	bybit.OnBarClose(func(symbol string, tf domain.Timeframe, bar domain.Bar) {
		if tf == scanCfg.BarTimeframe {
			go worker.ScanSymbol(ctx, symbol)
		}
	})
	if err := bybit.Subscribe(cfg.Scanner.Symbols, scanCfg.BarTimeframe); err != nil {
		log.Error("Failed to subscribe to klines, relying on scan loop", zap.Error(err))
	}

	// 8. Init Web Server
	server := web.NewServer(cfg.Server.Port, store, svc, worker, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 9. Wait for Shutdown
	<-ctx.Done()

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
