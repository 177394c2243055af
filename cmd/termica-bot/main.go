package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/airemonte/termica-bot/internal/api/http"
	"github.com/airemonte/termica-bot/internal/bot"
	"github.com/airemonte/termica-bot/internal/config"
	"github.com/airemonte/termica-bot/internal/forecast"
	"github.com/airemonte/termica-bot/internal/geo"
	"github.com/airemonte/termica-bot/internal/meteo/openmeteo"
	"github.com/airemonte/termica-bot/internal/observability"
	"github.com/airemonte/termica-bot/internal/scheduler"
	"github.com/airemonte/termica-bot/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound model calls.
	modelClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Series cache with configured retention.
	cache := store.NewSeriesCache(cfg.CacheMaxEntries, cfg.CacheTTL)

	source := openmeteo.NewClient(modelClient, openmeteo.DefaultModels(), cfg.Timezone, metrics)
	service := forecast.NewService(source, cache, cfg.Timezone, metrics)

	// The poll client needs headroom beyond the long-poll timeout itself.
	pollClient := &http.Client{
		Timeout: cfg.PollTimeout + 10*time.Second,
	}
	tg := bot.NewClient(pollClient, cfg.BotToken)

	// Geocoding requires a Google API key; without one /spot falls back to
	// the default roster.
	var geocoder bot.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geocoder = geo.NewClient(cfg.GeocoderAPIKey, 128)
	}

	loop := bot.NewLoop(tg, service, geocoder, bot.Config{
		DefaultLocations: cfg.Locations,
		HorizonDays:      cfg.HorizonDays,
		PollTimeout:      cfg.PollTimeout,
		SendDelay:        cfg.SendDelay,
	}, metrics)

	// Daily broadcast, skipped unless a chat and time are configured.
	sched := scheduler.New(cfg.Timezone, tg, service, scheduler.Config{
		ChatID:      cfg.BroadcastChatID,
		At:          cfg.BroadcastAt,
		Locations:   cfg.Locations,
		HorizonDays: cfg.HorizonDays,
		SendDelay:   cfg.SendDelay,
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "termica-bot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "termica-bot",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal or a dead transport
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-loopErr:
		if err != nil {
			log.Printf("ERROR: update loop stopped: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
