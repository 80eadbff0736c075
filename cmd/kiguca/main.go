package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"kiguca/internal/analytics"
	"kiguca/internal/backend"
	"kiguca/internal/config"
	"kiguca/internal/events"
	apphttp "kiguca/internal/http"
	"kiguca/internal/log"
)

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	result, err := backend.Build(cfg, logger.WithComponent(log.ComponentBackend))
	if err != nil {
		logger.Error("Failed to initialize storage engine", log.FieldError, err)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Engine cleanup error", log.FieldError, err)
			}
		}()
	}

	bus := events.NewBus()
	if cfg.AMQPURL != "" {
		bridge, err := events.NewAMQPBridge(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP bridge unavailable, continuing without it", log.FieldError, err)
		} else {
			defer bridge.Close()
			unsubscribe := bridge.Attach(bus)
			defer unsubscribe()
			logger.Info("AMQP bridge attached", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	metrics := analytics.NewService(result.Engine, cfg.AnchorDay)
	srv := apphttp.NewServer(":"+cfg.Port, result.Engine, metrics, bus, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting kiguca server",
		"port", cfg.Port,
		log.FieldEngine, result.Type.String(),
		"anchor_day", cfg.AnchorDay)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
