package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsletter_dashboard/internal/catalog"
	"newsletter_dashboard/internal/config"
	"newsletter_dashboard/internal/db"
	"newsletter_dashboard/internal/logger"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to JSON config file")
	pflag.Parse()

	logger.Init()
	defer logger.Log.Info("Catalog stopped")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	cfg.ApplyEnv()
	if err := cfg.ValidateCatalog(); err != nil {
		logger.Log.Fatalf("Invalid config: %v", err)
	}

	database, err := db.NewDB(ctx, cfg.Catalog.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("DB connection error: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(ctx); err != nil {
		logger.Log.Fatalf("Schema init error: %v", err)
	}

	server := &http.Server{
		Addr:    cfg.Catalog.ListenAddr,
		Handler: catalog.NewHandler(database).Routes(),
	}
	go func() {
		logger.Log.Infof("Starting catalog on %s", cfg.Catalog.ListenAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	ctxShutdown, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Log.Fatalf("Forced shutdown: %v", err)
	}
}
