package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsletter_dashboard/internal/backend"
	"newsletter_dashboard/internal/config"
	"newsletter_dashboard/internal/dashboard"
	"newsletter_dashboard/internal/loader"
	"newsletter_dashboard/internal/logger"
	"newsletter_dashboard/internal/metrics"
	"newsletter_dashboard/internal/middleware"
	"newsletter_dashboard/internal/server"

	"github.com/spf13/pflag"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to JSON config file")
	pflag.Parse()

	logger.Init()
	defer logger.Log.Info("Dashboard stopped")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Invalid config: %v", err)
	}

	m := metrics.New()
	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeoutDuration())
	session := loader.NewSession(client, m)
	session.Observe(func(snap loader.Snapshot) {
		summary := dashboard.ComputeMetrics(snap.Newsletters)
		m.TotalSpend.Set(summary.TotalSpend)
		m.LowEngagementPaid.Set(float64(summary.LowEngagementPaid))
		m.HighEngagementFree.Set(float64(summary.HighEngagementFree))
	})

	// The single load cycle runs in the background; handlers report
	// "loading" until it settles.
	go func() {
		loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.LoadTimeoutDuration())
		defer cancelLoad()
		if err := session.Load(loadCtx); err != nil {
			logger.Log.Errorf("Load cycle failed: %v", err)
		}
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if err := limiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		logger.Log.Fatalf("Rate limit config error: %v", err)
	}
	go sweepClients(ctx, limiter, time.Minute, 5*time.Minute)

	srv := server.NewServer(session, m, limiter)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv.Routes()}
	go func() {
		logger.Log.Infof("Starting dashboard on %s (backend %s)", cfg.ListenAddr, cfg.BackendURL)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	ctxShutdown, cancelShutdown := context.WithTimeout(ctx, 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Log.Fatalf("Forced shutdown: %v", err)
	}
}

func sweepClients(ctx context.Context, limiter *middleware.RateLimiter, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := limiter.Sweep(idle); n > 0 {
				logger.Log.WithField("removed", n).Debug("Swept idle rate-limit clients")
			}
		case <-ctx.Done():
			return
		}
	}
}
