package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiopass/internal/config"
	"studiopass/internal/db"
	"studiopass/internal/logger"
	"studiopass/internal/processor"
	"studiopass/internal/server"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	client, err := processor.NewClient(processor.Config{
		BaseURL:    cfg.ProcessorBaseURL,
		MerchantID: cfg.MerchantID,
		PosID:      cfg.PosID,
		CRC:        cfg.CRC,
		APIKey:     cfg.APIKey,
	})
	if err != nil {
		logger.Fatalf("Failed to configure payment processor client: %v", err)
	}

	srv := server.New(database, cfg, client)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		serverErrChan <- srv.Start(cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrChan:
		logger.Fatalf("Server error: %v", err)
	case sig := <-quit:
		logger.Info("Shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
