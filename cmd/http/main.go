package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-parts-service/config"
	"github.com/fekuna/omnipos-parts-service/internal/forecast"
	"github.com/fekuna/omnipos-parts-service/internal/observability"
	"github.com/fekuna/omnipos-parts-service/internal/seed"
	"github.com/fekuna/omnipos-parts-service/pkg/broker"
	"github.com/fekuna/omnipos-parts-service/pkg/logger"

	alertRepoPkg "github.com/fekuna/omnipos-parts-service/internal/alert/repository"
	identityRepoPkg "github.com/fekuna/omnipos-parts-service/internal/identity/repository"
	partRepoPkg "github.com/fekuna/omnipos-parts-service/internal/part/repository"
	txRepoPkg "github.com/fekuna/omnipos-parts-service/internal/transaction/repository"

	ledgerH "github.com/fekuna/omnipos-parts-service/internal/ledger/handler"
	ledgerListenerPkg "github.com/fekuna/omnipos-parts-service/internal/ledger/listener"
	ledgerUCPkg "github.com/fekuna/omnipos-parts-service/internal/ledger/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Initialize Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewLedgerMetrics(registry)

	// 4. Initialize Repositories
	userRepo := identityRepoPkg.NewMemoryRepository()
	partRepo := partRepoPkg.NewMemoryRepository()
	txRepo := txRepoPkg.NewMemoryRepository()
	alertRepo := alertRepoPkg.NewMemoryRepository()

	// 5. Initialize Forecaster
	var forecaster forecast.Forecaster
	if f, err := forecast.NewOpenAIForecaster(&forecast.OpenAIConfig{
		APIKey:  cfg.Forecast.APIKey,
		Model:   cfg.Forecast.Model,
		BaseURL: cfg.Forecast.BaseURL,
	}, appLogger); err != nil {
		appLogger.Warn("Forecasting disabled", zap.Error(err))
	} else {
		forecaster = f
		appLogger.Info("Forecasting enabled", zap.String("model", cfg.Forecast.Model))
	}

	// 6. Initialize UseCase
	ledgerUC := ledgerUCPkg.NewLedgerUseCase(ledgerUCPkg.Repositories{
		Users:        userRepo,
		Parts:        partRepo,
		Transactions: txRepo,
		Alerts:       alertRepo,
	}, forecaster, metrics, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6.5 Seed demo data
	if cfg.Seed.Enabled {
		if err := seed.Run(ctx, userRepo, ledgerUC, appLogger); err != nil {
			appLogger.Fatal("Could not seed demo data", zap.Error(err))
		}
	}

	// 7. Initialize Kafka Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		scanListener := ledgerListenerPkg.NewScanListener(kafkaConsumer, ledgerUC, appLogger)
		go scanListener.Start(ctx)
	}

	// 8. Initialize HTTP Router
	router := gin.New()
	router.Use(gin.Recovery(), ledgerH.RequestLogger(appLogger))
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})))
	}
	ledgerH.NewLedgerHandler(ledgerUC, appLogger).RegisterRoutes(router)

	// 9. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shut down", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
