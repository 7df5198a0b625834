package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"vesting-project/config"
	"vesting-project/db"
	"vesting-project/events"
	"vesting-project/handlers"
	"vesting-project/host"
	"vesting-project/logger"
	"vesting-project/repository"
	"vesting-project/routers"
	"vesting-project/token"
	"vesting-project/vesting"
)

func main() {
	// Load config
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.DefaultPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Println("Config file error:", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(cfg.Log.AppLogFile, cfg.Log.Level); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Logger.Sync()

	logger.Logger.Info("Starting vesting server...")
	for _, w := range cfg.Warnings() {
		logger.Logger.Warn("Unsafe configuration", zap.String("detail", w))
	}

	// Connect to LevelDB
	ldb, err := db.NewLevelDB(cfg.LevelDB.Path)
	if err != nil {
		logger.Logger.Fatal("Failed to open leveldb", zap.Error(err))
	}
	defer ldb.Close()

	// Initialize repository
	stateRepo := repository.NewStateRepository(ldb)

	// Token service: local balance book or a remote CEP-18 bridge
	var tokens token.Service
	var book *token.Book
	switch cfg.Token.Mode {
	case config.TokenModeHTTP:
		tokens = token.NewClient(cfg.Token.BaseURL, cfg.Token.Timeout)
		logger.Logger.Info("Using remote token service", zap.String("base_url", cfg.Token.BaseURL))
	default:
		book = token.NewBook(stateRepo)
		tokens = book
	}

	// Event sink
	var sink events.Sink = events.NewLogSink(logger.Logger)
	var lister events.Lister
	if cfg.Events.SQLitePath != "" {
		recorder, err := events.NewSQLiteRecorder(cfg.Events.SQLitePath)
		if err != nil {
			logger.Logger.Fatal("Failed to open event store", zap.Error(err))
		}
		defer recorder.Close()
		sink, lister = recorder, recorder
	}

	contract := vesting.NewContract(stateRepo, tokens, sink, host.SystemClock{}, vesting.Options{
		Admin:          cfg.Vesting.Admin,
		RequireRelease: cfg.Vesting.RequireRelease,
	})

	// Initialize HTTP handlers
	h := handlers.NewHandler(contract, book, lister)

	// Setup router
	r := mux.NewRouter()
	routers.RegisterRoutes(r, h)

	// HTTP Server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Error("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", cfg.Server.Port))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Graceful shutdown failed", zap.Error(err))
		srv.Close()
	}
}
