package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "reviewhub-backend/internal/api/http"
	"reviewhub-backend/internal/config"
	"reviewhub-backend/internal/logger"
	"reviewhub-backend/internal/repository/postgres"
	"reviewhub-backend/internal/security"
	"reviewhub-backend/internal/service"
	"reviewhub-backend/internal/storage"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ReviewHub Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(context.Background(), db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	maxRecharge, err := cfg.MaxRechargeAmount()
	if err != nil {
		log.Fatalf("Invalid settlement configuration: %v", err)
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTokenTTL())

	// Initialize Storage Service
	logger.Info("Using local upload storage", "upload_dir", cfg.Storage.UploadDir)
	uploads, err := storage.NewLocalStorageService(storage.Config{
		Dir:          cfg.Storage.UploadDir,
		MaxFileSize:  cfg.MaxUploadBytes(),
		AllowedTypes: cfg.Storage.AllowedTypes,
	})
	if err != nil {
		logger.Error("Failed to initialize upload storage", "error", err)
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	// Initialize Email Service
	emailSvc := service.NewEmailService(
		cfg.Email.SendGridAPIKey,
		cfg.Email.FromEmail,
		cfg.Email.FromName,
		cfg.Email.AdminRecipients,
	)

	// Post-commit dispatcher
	dispatcher := service.NewDispatcher(store.NotificationRepository, store.ActivityRepository, emailSvc, service.DispatcherConfig{
		Workers:     cfg.Dispatch.Workers,
		QueueSize:   cfg.Dispatch.QueueSize,
		MaxRetries:  cfg.Dispatch.MaxRetries,
		Backoff:     time.Duration(cfg.Dispatch.BackoffMillis) * time.Millisecond,
		SinkTimeout: time.Duration(cfg.Dispatch.SinkTimeoutSeconds) * time.Second,
	})
	dispatcher.Start()

	// Initialize Services
	settlement := service.NewSettlementEngine()
	taskSvc := service.NewTaskService(store, store.TaskRepository, service.NewStepTransitionEngine(), settlement, dispatcher)
	rechargeSvc := service.NewRechargeService(store, store.RechargeRepository, settlement, dispatcher, maxRecharge)
	walletSvc := service.NewWalletService(store.WalletRepository, store.PaymentRepository)
	noteSvc := service.NewNotificationService(store.NotificationRepository)

	router := httpapi.NewRouter(httpapi.Services{
		Tasks:         taskSvc,
		Recharges:     rechargeSvc,
		Wallets:       walletSvc,
		Notifications: noteSvc,
		Uploads:       uploads,
	}, tokenManager)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown: stop accepting requests, then drain queued events
	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		logger.Warn("Dispatcher did not drain before deadline", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
