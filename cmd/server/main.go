package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jraftery/expense-ledger/internal/api"
	"github.com/jraftery/expense-ledger/internal/config"
	"github.com/jraftery/expense-ledger/internal/export"
	"github.com/jraftery/expense-ledger/internal/extract"
	"github.com/jraftery/expense-ledger/internal/ingest"
	"github.com/jraftery/expense-ledger/internal/ledger"
	"github.com/jraftery/expense-ledger/internal/lifecycle"
	"github.com/jraftery/expense-ledger/internal/notify"
	"github.com/jraftery/expense-ledger/internal/storage"
	"github.com/jraftery/expense-ledger/internal/telegram"
	"github.com/jraftery/expense-ledger/pkg/database"
	"github.com/jraftery/expense-ledger/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense ledger service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Create receipt storage directory
	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		logger.Fatal("Failed to create storage directory", zap.Error(err))
	}

	// Initialize repository
	repo := ledger.NewRepository(db.DB, logger)

	// Initialize Telegram client
	bot, err := telegram.NewClient(telegram.Config{
		BotToken:   cfg.Telegram.BotToken,
		APITimeout: cfg.Telegram.APITimeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize telegram client", zap.Error(err))
	}

	// Initialize extraction client
	extractor := extract.NewClient(extract.Config{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
	}, logger)

	// Initialize receipt store
	store := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.PublicBaseURL, logger)

	// Initialize notification and lifecycle components
	notifier := notify.NewNotifier(repo, bot, logger)
	engine := lifecycle.NewEngine(repo, notifier, logger)
	coordinator := ingest.NewCoordinator(store, extractor, repo, cfg.Ingest.MaxConcurrent, logger)
	exporter := export.NewExcelWriter(logger)

	// Initialize HTTP handlers and router
	handlers := api.NewHandlers(coordinator, engine, repo, notifier, exporter, bot, logger)

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(handlers, api.RouterConfig{
		WebhookPath: cfg.Telegram.WebhookPath,
		ReceiptDir:  cfg.Storage.Dir,
	}, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
