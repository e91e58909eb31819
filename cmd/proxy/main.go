package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"soraprobe/internal/http/handlers"
	httpapi "soraprobe/internal/http/httpapi"
	"soraprobe/internal/infra"
	"soraprobe/internal/infra/geoip"
	"soraprobe/internal/middleware"
	"soraprobe/internal/providers/sora"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.Verbose).With().Str("cmd", "proxy").Logger()

	client, err := sora.NewClient(sora.Options{
		APIKey:          cfg.APIKey,
		BaseURL:         cfg.BaseURL,
		GenerationsPath: cfg.GenerationsPath,
		Organization:    cfg.Organization,
		Logger:          &logger,
		LightTimeout:    cfg.LightTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build api client")
	}
	if !client.HasCredentials() {
		logger.Warn().Msg("OPENAI_API_KEY is not set, api routes will answer 503")
	}

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()
	var lookup middleware.CountryLookup
	if resolver != nil {
		lookup = resolver.Country
	}

	var limiter middleware.Limiter
	if cfg.RateLimitRedisURL != "" && cfg.RateLimitPerMin > 0 {
		rdb, err := infra.NewRedisClient(context.Background(), cfg.RateLimitRedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-memory rate limit")
		} else {
			defer rdb.Close()
			limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimitPerMin, time.Minute, "")
		}
	}

	app := handlers.NewApp(client, &logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		Limiter:            limiter,
		Country:            lookup,
		Logger:             logger,
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().
			Str("addr", server.Addr()).
			Bool("api_key_configured", client.HasCredentials()).
			Str("upstream", cfg.BaseURL).
			Msg("proxy listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
