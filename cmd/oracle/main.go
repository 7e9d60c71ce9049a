package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	slogzap "github.com/samber/slog-zap/v2"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/app/service"
	"nav_oracle/internal/infrastructure/adapters"
	"nav_oracle/internal/infrastructure/configloader"
	evmclient "nav_oracle/internal/infrastructure/network/client"
	"nav_oracle/internal/infrastructure/oraclehelper"
	"nav_oracle/internal/infrastructure/publisher"
	"nav_oracle/internal/infrastructure/restapi"
	"nav_oracle/internal/pkg/logger"
	"nav_oracle/internal/pkg/metrics"
	"nav_oracle/internal/pkg/utils"
)

const proposerKeyEnv = "SAFE_PROPOSER_KEY"

func main() {
	// Bootstrap logger for the config-loading phase; the real logger depends
	// on the loaded config.
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	var (
		configPath = flag.String("config", utils.GetEnv("CONFIG_PATH", "config/config.yaml"), "path to the YAML configuration file")
		serveMode  = flag.Bool("serve", false, "run the HTTP server instead of a single report cycle")
	)
	flag.Parse()

	cfg, err := configloader.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLevel, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		zapLevel = zapcore.InfoLevel
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapLogger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := slogzap.Option{Level: zapLevelToSlog(zapLevel), Logger: zapLogger}.NewZapHandler()
	logger.Init(slog.New(slogHandler))
	appLogger := logger.NewSlogAdapter()

	zapLogger.Info("Configuration loaded", zap.String("path", *configPath))

	metrics.MustRegisterMetrics()

	provider := evmclient.NewEVMClientProvider(cfg, appLogger)
	registry := adapters.NewRegistry(cfg, provider, zapLogger, appLogger)

	vaultEVM, err := provider.GetClient(cfg.Vault.Network)
	if err != nil {
		zapLogger.Fatal("Failed to connect to vault network", zap.Error(err))
	}

	checks, err := registry.Checks()
	if err != nil {
		zapLogger.Fatal("Failed to build pre-flight checks", zap.Error(err))
	}
	priceAdapters, err := registry.PriceAdapters()
	if err != nil {
		zapLogger.Fatal("Failed to build price adapters", zap.Error(err))
	}
	validators, err := registry.Validators()
	if err != nil {
		zapLogger.Fatal("Failed to build price validators", zap.Error(err))
	}
	idleAdapter, err := registry.IdleAdapter()
	if err != nil {
		zapLogger.Fatal("Failed to build idle balances adapter", zap.Error(err))
	}
	subvaultCfgs, err := registry.SubvaultConfigs()
	if err != nil {
		zapLogger.Fatal("Failed to resolve subvault adapter bindings", zap.Error(err))
	}

	reportPublisher, err := buildPublisher(cfg, registry, appLogger)
	if err != nil {
		zapLogger.Fatal("Failed to build report publisher", zap.Error(err))
	}

	helper := oraclehelper.NewContractHelper(
		vaultEVM, common.HexToAddress(cfg.Vault.OracleHelperAddress), appLogger)

	baseAssetCfg := cfg.Assets[cfg.Vault.BaseAsset]
	pipelineCfg := service.PipelineConfig{
		Vault:         common.HexToAddress(cfg.Vault.Address),
		BaseAsset:     common.HexToAddress(baseAssetCfg.Address),
		PreCheckMax:   cfg.PreCheck.Retries,
		PreCheckDelay: time.Duration(cfg.PreCheck.IntervalSeconds * float64(time.Second)),
		CycleTimeout:  time.Duration(cfg.CycleTimeoutSeconds) * time.Second,
	}

	pipeline := service.NewPipeline(
		pipelineCfg,
		service.NewPreflightService(checks, appLogger),
		service.NewAssetService(vaultEVM, idleAdapter, subvaultCfgs, appLogger, cfg.Performance.MaxConcurrentRoutines),
		service.NewPricingService(priceAdapters, validators, appLogger),
		service.NewReportService(helper, appLogger),
		reportPublisher,
		appLogger,
	)

	if *serveMode {
		runServer(cfg, pipeline, zapLogger)
		return
	}

	// One-shot mode: a single report cycle, cancellable by SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := pipeline.Run(ctx); err != nil {
		zapLogger.Error("Report cycle failed", zap.Error(err))
		zapLogger.Sync()
		os.Exit(1)
	}
}

// buildPublisher selects the configured publication mode.
func buildPublisher(cfg *configloader.Config, registry *adapters.Registry, appLogger port.Logger) (port.ReportPublisher, error) {
	switch cfg.Publisher.Mode {
	case "safe":
		key := os.Getenv(proposerKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("publisher.mode=safe requires the %s environment variable", proposerKeyEnv)
		}
		chainID := int64(0)
		for _, network := range cfg.Networks {
			if network.Name == cfg.Vault.Network {
				chainID = network.ChainID
			}
		}
		return publisher.NewSafePublisher(
			registry.SafeAPI(),
			common.HexToAddress(cfg.Safe.Address),
			common.HexToAddress(cfg.Vault.OracleAddress),
			chainID, key, appLogger)
	default:
		return publisher.NewStdoutPublisher(cfg.Vault.OracleAddress, appLogger), nil
	}
}

// runServer starts the HTTP surface and blocks until shutdown.
func runServer(cfg *configloader.Config, pipeline *service.Pipeline, zapLogger *zap.Logger) {
	reportHandler := restapi.NewReportHandler(pipeline)
	router := restapi.SetupRouter(reportHandler, cfg.Server.SwaggerEnabled)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	if cfg.Server.ReportIntervalSeconds > 0 {
		interval := time.Duration(cfg.Server.ReportIntervalSeconds) * time.Second
		zapLogger.Info("Starting scheduled report cycles", zap.Duration("interval", interval))
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-schedulerCtx.Done():
					return
				case <-ticker.C:
					if _, err := reportHandler.RunCycle(schedulerCtx); err != nil {
						zapLogger.Error("Scheduled report cycle failed", zap.Error(err))
					}
				}
			}
		}()
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")
	stopScheduler()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}

func zapLevelToSlog(level zapcore.Level) slog.Level {
	switch level {
	case zapcore.DebugLevel:
		return slog.LevelDebug
	case zapcore.WarnLevel:
		return slog.LevelWarn
	case zapcore.ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
