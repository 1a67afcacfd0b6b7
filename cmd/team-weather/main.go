package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/team-weather/internal/api/http"
	"github.com/i474232898/team-weather/internal/config"
	"github.com/i474232898/team-weather/internal/dashboard"
	"github.com/i474232898/team-weather/internal/registry"
	"github.com/i474232898/team-weather/internal/search"
	"github.com/i474232898/team-weather/internal/store"
	"github.com/i474232898/team-weather/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	forecast := providers.NewOpenMeteoProvider(httpClient, cfg.ForecastBaseURL)
	geocoder := providers.NewOpenMeteoGeocoder(httpClient, providers.GeocodeOptions{
		BaseURL:  cfg.GeocodeBaseURL,
		Count:    cfg.SearchResultCount,
		Language: cfg.SearchLanguage,
	})

	engine, closeRemote := newRegistryEngine(ctx, cfg)
	defer closeRemote()

	dash := dashboard.New(dashboard.Options{
		Registry:       engine,
		Provider:       forecast,
		Store:          store.NewMemoryStore(),
		Geocoder:       geocoder,
		PollInterval:   cfg.PollInterval,
		RefreshTimeout: cfg.RefreshTimeout,
		SearchOptions: []search.Option{
			search.WithDebounce(cfg.SearchDebounce),
			search.WithMinLength(cfg.SearchMinLength),
			search.WithRequestTimeout(cfg.HTTPTimeout),
		},
	})
	if err := dash.Start(ctx); err != nil {
		log.Fatalf("failed to start dashboard: %v", err)
	}
	defer dash.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "team-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "team-weather",
			"offline": engine.Offline(),
		})
	})

	httpapi.RegisterRoutes(app, dash)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// newRegistryEngine connects to the shared registry, falling back to an
// offline engine when it is not configured or unreachable.
func newRegistryEngine(ctx context.Context, cfg *config.AppConfig) (*registry.Engine, func()) {
	noop := func() {}
	if cfg.Offline() {
		return registry.NewEngine(nil), noop
	}

	remote, err := registry.DialRedis(ctx, cfg.RedisURL, cfg.AppID)
	if err != nil {
		log.Printf("registry: could not reach shared registry, running offline: %v", err)
		return registry.NewEngine(nil), noop
	}
	return registry.NewEngine(remote), func() {
		if err := remote.Close(); err != nil {
			log.Printf("registry: close: %v", err)
		}
	}
}
