package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riskcalc/internal/calculator"
	"riskcalc/internal/config"
	"riskcalc/internal/health"
	"riskcalc/internal/httpserver"
	"riskcalc/internal/logger"
	"riskcalc/internal/ratelimit"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to an optional config.toml")
	flag.Parse()

	// run returns before exiting so its deferred cleanup always happens.
	if err := run(*configPath); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Setup("info", "console")
		return fmt.Errorf("load config: %w", err)
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.UIDist != "" {
		if _, err := os.Stat(cfg.UIDist); err != nil {
			return fmt.Errorf("ui dist %s not readable: %w", cfg.UIDist, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	var limiter ratelimit.Limiter
	limiterMode := "memory"
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		limiter = ratelimit.NewRedis(rdb, cfg.RedisPrefix, cfg.RateLimitBurst, ratelimit.WindowFor(cfg.RateLimitRPS, cfg.RateLimitBurst))
		limiterMode = "redis"
	}

	g, gctx := errgroup.WithContext(ctx)

	if limiter == nil {
		mem := ratelimit.NewMemory(cfg.RateLimitRPS, cfg.RateLimitBurst)
		g.Go(func() error {
			mem.Run(gctx)
			return nil
		})
		limiter = mem
	}

	calcSvc := calculator.NewService(int32(cfg.ResponsePrecision))
	router := httpserver.NewRouter(httpserver.RouterDeps{
		CalculatorHandler: calculator.NewHandler(calcSvc),
		CalculateWS:       httpserver.NewCalculateWSHandler(calcSvc, cfg.WebSocketOrigin),
		HealthHandler:     health.NewHandler(rdb, time.Now(), cfg.HTTPAddr, limiterMode),
		Limiter:           limiter,
		CORSOrigins:       cfg.CORSOrigins,
		UIDist:            cfg.UIDist,
		TrustProxy:        cfg.TrustProxy,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		log.Info().
			Str("addr", cfg.HTTPAddr).
			Str("rate_limiter", limiterMode).
			Bool("trust_proxy", cfg.TrustProxy).
			Str("ui_dist", cfg.UIDist).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
