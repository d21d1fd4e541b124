package main // Entry point of the VeXeViet mock booking backend

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/vexeviet/seat-hold/internal/config"
	"github.com/vexeviet/seat-hold/internal/handler"
	"github.com/vexeviet/seat-hold/internal/inventory"
	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/middleware"
	"github.com/vexeviet/seat-hold/internal/queue"
	"github.com/vexeviet/seat-hold/internal/router"
)

func main() {
	config.LoadDotEnv()
	cfg := config.LoadServer()
	log := logger.New()
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users := inventory.NewUsers()
	if _, err := users.Seed(cfg.DemoEmail, cfg.DemoPassword, cfg.BcryptCost); err != nil {
		log.WithError(err).Error("seed demo user failed")
		os.Exit(1)
	}
	inv := inventory.New(inventory.Config{
		HoldTTL: cfg.HoldTTL,
		Gateways: inventory.GatewayConfig{
			VNPayURL:   cfg.VNPayURL,
			MoMoURL:    cfg.MoMoURL,
			ZaloPayURL: cfg.ZaloPayURL,
			ReturnURL:  cfg.ReturnURL,
		},
	}, inventory.DefaultRoutes())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	if cfg.RabbitURL != "" {
		go func() {
			err := queue.StartHoldEventConsumer(ctx, queue.ConsumerConfig{
				URL:     cfg.RabbitURL,
				Queue:   cfg.EventQueue,
				LogPath: cfg.EventLogPath,
			}, log)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("hold-event consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	router.Register(e, router.Deps{
		Auth:         handler.NewAuthHandler(cfg, users),
		Browse:       &handler.BrowseHandler{Inv: inv},
		Reservations: handler.NewReservationHandler(inv, log),
		JWTSecret:    cfg.JWTSecret,
		Cache:        config.LoadCacheConfig(),
		RateLimit:    config.LoadRateLimitConfig(),
		Redis:        rdb,
		Log:          log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}
