package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/station-health/internal/api/http"
	"github.com/i474232898/station-health/internal/collector"
	"github.com/i474232898/station-health/internal/config"
	"github.com/i474232898/station-health/internal/health"
	"github.com/i474232898/station-health/internal/logger"
	"github.com/i474232898/station-health/internal/publish"
	"github.com/i474232898/station-health/internal/scheduler"
	"github.com/i474232898/station-health/internal/store"
	"github.com/i474232898/station-health/internal/weatherlink"
)

const serviceName = "station-health"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer l.Sync()

	if !cfg.HasCredentials() {
		l.Warn("WeatherLink credentials incomplete; records will carry no health data")
	}

	units := health.NewUnitTable()
	health.RegisterUnits(units)

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	creds := collector.Credentials{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		StationID: cfg.StationID,
	}
	col := collector.New(creds, cfg.BaseURL, cfg.PollingInterval, weatherlink.NewClient(httpClient), l.Named("collector"))

	st, err := openStore(cfg, l)
	if err != nil {
		l.Fatal("failed to open store", zap.Error(err))
	}
	defer st.Close()

	var pub health.Publisher
	if cfg.MQTTBroker != "" {
		mp, err := publish.Connect(publish.Config{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
			Topic:    cfg.MQTTTopic,
		})
		if err != nil {
			l.Fatal("failed to connect publisher", zap.Error(err))
		}
		defer mp.Close()
		pub = mp
		l.Info("publishing records", zap.String("broker", cfg.MQTTBroker), zap.String("topic", cfg.MQTTTopic))
	}

	// Core service: collect, save, publish, prune.
	service := collector.NewService(col, st, pub, cfg.MaxAge, l.Named("service"))

	// Scheduler that emits one archive event per interval.
	sched := scheduler.New(service, cfg.ArchiveInterval, cfg.CycleTimeout, l.Named("scheduler"))
	if err := sched.Start(); err != nil {
		l.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		last := service.Last()
		resp := fiber.Map{
			"status":  "ok",
			"service": serviceName,
		}
		if !last.IsZero() {
			resp["last_record"] = last.Unix()
		}
		return c.JSON(resp)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, units)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			l.Error("fiber server stopped", zap.Error(err))
		}
	}()
	l.Info("service started",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.Duration("archive_interval", cfg.ArchiveInterval),
		zap.Duration("polling_interval", cfg.PollingInterval))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		l.Error("error during shutdown", zap.Error(err))
	}
}

// openStore opens the configured store and refuses to run against a table
// whose columns differ from the health schema.
func openStore(cfg *config.AppConfig, l *zap.Logger) (health.Store, error) {
	var st health.Store
	switch cfg.StoreDriver {
	case store.DriverPostgres, store.DriverMySQL:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, cfg.StoreTable, l.Named("store"))
		if err != nil {
			return nil, err
		}
		st = s
	default:
		st = store.NewMemoryStore(cfg.StoreMaxHistory)
	}

	live, err := st.Columns(context.Background())
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := health.CheckSchema(live); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
