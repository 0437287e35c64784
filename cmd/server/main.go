package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kandang/internal/config"
	"github.com/mamadbah2/kandang/internal/repository"
	"github.com/mamadbah2/kandang/internal/repository/gormdb"
	"github.com/mamadbah2/kandang/internal/repository/mongodb"
	"github.com/mamadbah2/kandang/internal/repository/sheets"
	"github.com/mamadbah2/kandang/internal/scheduler"
	"github.com/mamadbah2/kandang/internal/server/handlers"
	"github.com/mamadbah2/kandang/internal/server/router"
	capacitysvc "github.com/mamadbah2/kandang/internal/service/capacity"
	harvestsvc "github.com/mamadbah2/kandang/internal/service/harvest"
	intakesvc "github.com/mamadbah2/kandang/internal/service/intake"
	ledgersvc "github.com/mamadbah2/kandang/internal/service/ledger"
	mortalitysvc "github.com/mamadbah2/kandang/internal/service/mortality"
	pricingsvc "github.com/mamadbah2/kandang/internal/service/pricing"
	profitsvc "github.com/mamadbah2/kandang/internal/service/profitability"
	relocationsvc "github.com/mamadbah2/kandang/internal/service/relocation"
	reportingsvc "github.com/mamadbah2/kandang/internal/service/reporting"
	suppliessvc "github.com/mamadbah2/kandang/internal/service/supplies"
	"github.com/mamadbah2/kandang/internal/service/txrunner"
	"github.com/mamadbah2/kandang/pkg/clients/pricefeed"
	"github.com/mamadbah2/kandang/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(context.Background(), cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	runner := txrunner.New(store, txrunner.Options{
		Timeout:    cfg.Tx.Timeout,
		MaxRetries: cfg.Tx.MaxRetries,
	}, baseLogger.Named("txrunner"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, occupancy export disabled")
	}

	var feed pricefeed.Client
	if cfg.PriceFeed.Enabled() {
		feed = pricefeed.NewClient(cfg.PriceFeed)
		baseLogger.Info("price feed client enabled", zap.String("region", cfg.PriceFeed.Region))
	}

	intake := intakesvc.NewService(runner, baseLogger.Named("svc.intake"))
	ledger := ledgersvc.NewService(runner, baseLogger.Named("svc.ledger"))
	capacity := capacitysvc.NewService(runner, baseLogger.Named("svc.capacity"))
	mortality := mortalitysvc.NewService(runner, baseLogger.Named("svc.mortality"))
	allocator := harvestsvc.NewAllocator(runner, baseLogger.Named("svc.harvest"))
	relocation := relocationsvc.NewService(runner, baseLogger.Named("svc.relocation"))
	supplies := suppliessvc.NewService(runner, baseLogger.Named("svc.supplies"))
	pricing := pricingsvc.NewService(runner, feed, cfg.PriceFeed.Region, baseLogger.Named("svc.pricing"))
	profit := profitsvc.NewService(runner, supplies, baseLogger.Named("svc.profitability"))
	reporting := reportingsvc.NewService(runner, sheetsRepo, baseLogger.Named("svc.reporting"))

	engine := router.New(cfg.Server.CORSAllowedOrigins, baseLogger.Named("router"),
		handlers.NewCoopHandler(intake, capacity, ledger, baseLogger.Named("handlers.coops")),
		handlers.NewBatchHandler(intake, ledger, mortality, baseLogger.Named("handlers.batches")),
		handlers.NewHarvestHandler(allocator, profit, baseLogger.Named("handlers.harvests")),
		handlers.NewRelocationHandler(relocation, baseLogger.Named("handlers.relocations")),
		handlers.NewPriceHandler(pricing, baseLogger.Named("handlers.prices")),
		handlers.NewSupplyHandler(supplies, baseLogger.Named("handlers.supplies")),
		handlers.NewReportHandler(reporting, sheetsRepo != nil, baseLogger.Named("handlers.reports")),
	)

	var exporter scheduler.OccupancyExporter
	if sheetsRepo != nil {
		exporter = reporting
	}
	var publisher scheduler.PricePublisher
	if feed != nil {
		publisher = pricing
	}
	sched, err := scheduler.NewScheduler(cfg.Reporting, exporter, publisher, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	if cfg.Store.Driver == config.DriverMongoDB {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		repo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("mongodb"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	store, err := gormdb.Open(ctx, gormdb.Options{
		Driver:         cfg.Store.Driver,
		DSN:            cfg.Store.DSN,
		Debug:          cfg.Store.Debug,
		ConnectRetries: 10,
	}, log.Named("sql"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
