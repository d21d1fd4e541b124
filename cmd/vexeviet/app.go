package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vexeviet/seat-hold/internal/client"
	"github.com/vexeviet/seat-hold/internal/config"
	"github.com/vexeviet/seat-hold/internal/database"
	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/queue"
	"github.com/vexeviet/seat-hold/internal/repository"
	"github.com/vexeviet/seat-hold/internal/seathold"
)

const publishTimeout = 3 * time.Second

// app is the wiring shared by every online command.
type app struct {
	cfg    config.ClientConfig
	out    io.Writer
	log    *logger.Logger
	holds  *repository.HoldStorage
	tokens *repository.TokenStorage
	api    *client.Client
	ctrl   *seathold.Controller

	closers []func()
}

func newApp(ctx context.Context, cfg config.ClientConfig, out io.Writer, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, out: out, log: log}

	store, rdb, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.holds = repository.NewHoldStorage(store, nil)
	a.tokens = repository.NewTokenStorage(store, nil)

	var cache client.AvailabilityCache = client.NewMemoryCache(cfg.CacheTTL, nil)
	if rdb != nil {
		cache = client.NewRedisCache(rdb, cfg.CacheTTL)
	}
	a.api, err = client.New(client.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Cache:   cache,
		Logger:  log,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	if token, ok, err := a.tokens.Load(ctx); err != nil {
		log.WithError(err).Warn("stored access token unreadable")
	} else if ok {
		a.api.SetToken(token)
	}

	var subscribers []func(seathold.Snapshot)
	if cfg.RabbitURL != "" {
		pub, err := queue.NewPublisher(cfg.RabbitURL, cfg.EventQueue)
		if err != nil {
			log.WithError(err).Warn("hold events disabled")
		} else {
			a.closers = append(a.closers, func() { _ = pub.Close() })
			subscribers = append(subscribers, queue.HoldEventForwarder(pub, publishTimeout, log))
		}
	}

	a.ctrl, err = seathold.New(ctx, seathold.Deps{
		API:          a.api,
		Availability: a.api,
		Storage:      a.holds,
		Logger:       log,
		TickInterval: cfg.TickInterval,
		Subscribers:  subscribers,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.ctrl.Close)
	return a, nil
}

// openStore builds the durable slot for STORE_DRIVER.  The redis client
// is returned too so the availability cache can share it.
func (a *app) openStore(ctx context.Context) (repository.Store, *redis.Client, error) {
	switch strings.ToLower(a.cfg.StoreDriver) {
	case "memory":
		return repository.NewMemoryStore(), nil, nil
	case "", "file":
		s, err := repository.NewFileStore(a.cfg.StoreDir)
		return s, nil, err
	case "redis":
		rdb := config.NewRedisClient()
		if rdb == nil {
			return nil, nil, errors.New("store: redis unreachable")
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		return repository.NewRedisStore(rdb), rdb, nil
	case "mysql":
		db, err := database.Open(ctx, a.cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, nil, err
		}
		return repository.NewMySQLStore(db), nil, nil
	}
	return nil, nil, fmt.Errorf("store: unknown driver %q", a.cfg.StoreDriver)
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
