package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pos_client/internal/alert"
	"pos_client/internal/auth"
	"pos_client/internal/catalog"
	"pos_client/internal/config"
	"pos_client/internal/datasource"
	"pos_client/internal/infrastructure/metrics"
	"pos_client/internal/order"
	"pos_client/internal/shop"
	"pos_client/internal/store"
	"pos_client/pkg/logging"
)

var (
	// Version information (set via build flags)
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "configs/pos.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("pos version %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(cfg.System.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting POS client",
		"version", version,
		"data_source", cfg.App.DataSource,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The local cache is always open: it is either the data source itself or
	// the session persistence behind the remote source.
	cache, err := datasource.OpenCache(cfg.Local.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open local cache", "error", err)
	}
	defer cache.Close()

	var source *datasource.Source
	switch cfg.App.DataSource {
	case "remote":
		client := datasource.NewClient(
			cfg.Remote.BaseURL,
			cfg.Remote.APIKey,
			time.Duration(cfg.Remote.TimeoutSeconds)*time.Second,
			cfg.Remote.RateLimit,
		)
		source = datasource.NewRemoteSource(client, cache)
	default:
		source = datasource.NewLocalSource(cache)
	}

	alerts := alert.NewManager(logger)
	alerts.AddChannel(alert.NewLogChannel(logger))

	queue := store.NewPersistQueue(cfg.Persistence.Workers, cfg.Persistence.QueueDepth, alerts, logger)
	defer queue.Stop()

	products := store.New("products", source.Products, queue, logger)
	shops := store.New("shops", source.Shops, queue, logger)
	orders := store.New("orders", source.Orders, queue, logger)
	categories := store.New("categories", source.Categories, queue, logger)

	loader := datasource.NewLoader(source, logger)
	if err := loader.Load(ctx); err != nil {
		logger.Fatal("Bootstrap load failed", "error", err)
	}

	snap := loader.Snapshot()
	products.SetInitial(snap.Products)
	shops.SetInitial(snap.Shops)
	orders.SetInitial(snap.Orders)
	categories.SetInitial(snap.Categories)

	catalogEngine := catalog.NewEngine(products, categories, logger)
	shopEngine := shop.NewEngine(shops, logger)
	orderEngine := order.NewEngine(orders, catalogEngine, logger)

	authCtx := auth.NewContext(source.Sessions, logger)
	if err := authCtx.Restore(ctx); err != nil {
		logger.Warn("Session restore failed", "error", err)
	}

	var metricsServer *metrics.Server
	if cfg.Telemetry.EnableMetrics {
		metricsServer = metrics.NewServer(cfg.Telemetry.MetricsPort, logger)
		metricsServer.Start()
	}

	logger.Info("POS engine ready",
		"products", catalogEngine.Count(),
		"shops", len(shopEngine.Shops()),
		"orders", orderEngine.TotalOrders(0),
		"low_stock", catalogEngine.LowStockCount(),
	)

	<-ctx.Done()
	logger.Info("Shutting down")

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", "error", err)
		}
	}
}
