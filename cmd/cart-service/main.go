package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aaravmahajanofficial/cart-service/internal/api"
	"github.com/aaravmahajanofficial/cart-service/internal/api/handlers"
	"github.com/aaravmahajanofficial/cart-service/internal/cache"
	"github.com/aaravmahajanofficial/cart-service/internal/config"
	"github.com/aaravmahajanofficial/cart-service/internal/events"
	"github.com/aaravmahajanofficial/cart-service/internal/health"
	repository "github.com/aaravmahajanofficial/cart-service/internal/repositories"
	service "github.com/aaravmahajanofficial/cart-service/internal/services"
	"github.com/aaravmahajanofficial/cart-service/internal/telemetry"
	"github.com/aaravmahajanofficial/cart-service/pkg/razorpay"
	"github.com/aaravmahajanofficial/cart-service/pkg/stripe"
	"github.com/redis/go-redis/v9"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.MustLoad()

	if err := run(cfg); err != nil {
		slog.Error("❌ Service stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Env)
	if err != nil {
		return err
	}

	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
		}
	}()

	repos, err := repository.New(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	cartCache, limiter, redisClient, err := newCacheAndLimiter(cfg)
	if err != nil {
		return err
	}

	if redisClient != nil {
		defer redisClient.Close()
	}

	defer cartCache.Close()

	publisher := newPublisher(cfg)
	defer publisher.Close()

	gateway := newGateway(cfg)

	healthChecks, err := health.NewHealthHandler(cfg)
	if err != nil {
		return err
	}

	cartService := service.NewCartService(repos.Cart, cartCache, cfg.Cache.DefaultTTL, cfg.Cart.MaxConflictRetries)
	checkoutService := service.NewCheckoutService(repos.Cart, limiter, gateway, publisher, cfg.Checkout)

	router := api.NewRouter(api.RouterConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		JWTKey:         []byte(cfg.Security.JWTKey),
	}, api.Handlers{
		Cart:     handlers.NewCartHandler(cartService),
		Checkout: handlers.NewCheckoutHandler(checkoutService),
		Health:   healthChecks.Handler(),
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	serverErr := make(chan error, 1)

	go func() {
		slog.Info("🚀 Server is starting...",
			slog.String("address", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("provider", gateway.Provider()))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}

		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("✅ Server shut down gracefully")

	return nil
}

// Without Redis the cart cache lives in process and checkout attempts are not throttled.
func newCacheAndLimiter(cfg *config.Config) (cache.Cache, repository.RateLimitRepository, *redis.Client, error) {
	if !cfg.RedisConnect.Enabled() {
		slog.Warn("Redis not configured, using in-memory cart cache and no checkout rate limit")

		return cache.NewMemoryCache(&cfg.Cache), repository.NewNoopRateLimiter(), nil, nil
	}

	client, err := repository.NewRedisClient(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return cache.NewRedisCache(client, &cfg.Cache), repository.NewRateLimitRepo(client, cfg.RateConfig), client, nil
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.RabbitMQ.URL == "" {
		return events.NewNoopPublisher()
	}

	publisher, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
	if err != nil {
		slog.Error("⚠️ RabbitMQ unavailable, checkout events will be dropped", slog.String("error", err.Error()))

		return events.NewNoopPublisher()
	}

	slog.Info("✅ Connected to RabbitMQ", slog.String("exchange", cfg.RabbitMQ.Exchange))

	return publisher
}

func newGateway(cfg *config.Config) service.PaymentGateway {
	if cfg.Checkout.Provider == config.ProviderStripe {
		return stripe.NewClient(cfg.Stripe.APIKey, cfg.Stripe.PublishableKey)
	}

	return razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
}
