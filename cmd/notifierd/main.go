package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/shelfshare/notifier/modules/notifier"
	"github.com/shelfshare/notifier/pkg/config"
	"github.com/shelfshare/notifier/pkg/httpserver"
	"github.com/shelfshare/notifier/pkg/logger"
	"github.com/shelfshare/notifier/pkg/mongo"
	"github.com/shelfshare/notifier/pkg/notifications"
	"github.com/shelfshare/notifier/pkg/pg"
	"github.com/shelfshare/notifier/pkg/presence"
	"github.com/shelfshare/notifier/pkg/push"
	"github.com/shelfshare/notifier/pkg/requestid"
)

type appConfig struct {
	Env           string `env:"NOTIFIER_ENV" envDefault:"development"`
	Addr          string `env:"NOTIFIER_HTTP_ADDR" envDefault:":8080"`
	StorageDriver string `env:"NOTIFIER_STORAGE_DRIVER" envDefault:"memory"`
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(
		logger.WithEnvironment(cfg.Env, "notifierd"),
		logger.WithContextValue("request_id", requestid.CtxKey),
	)
	logger.SetAsDefault(log)

	storage, readiness, cleanup, err := newStorage(ctx, cfg.StorageDriver, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer cleanup()

	log.InfoContext(ctx, "Storage ready", logger.Backend(cfg.StorageDriver))

	registry := presence.NewRegistry()
	wsHub := push.NewWebsocketHub(registry, push.WithWebsocketLogger(log))
	defer wsHub.Close()
	sseHub := push.NewSSEHub(registry, push.WithSSELogger(log))
	sink := push.NewMultiSink(wsHub, sseHub)

	dispatcher := notifications.NewDispatcher(registry, sink, storage,
		notifications.WithDispatcherLogger(log),
	)
	svc := notifications.NewService(storage, dispatcher,
		notifications.WithServiceLogger(log),
	)

	r := chi.NewRouter()
	r.Get("/health", httpserver.HealthCheckHandler(ctx, log, readiness...))
	r.Mount("/notifications", notifier.Router(notifier.RouterOptions{
		Service:   svc,
		Auth:      notifier.HeaderAuthenticator{},
		Websocket: wsHub,
		SSE:       sseHub,
		Logger:    log,
	}))

	// No write timeout: the SSE and websocket endpoints hold responses open.
	srv := httpserver.New(
		httpserver.WithAddr(cfg.Addr),
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("Notification server listening", slog.String("addr", cfg.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("Notification server stopped")
		}),
	)

	return srv.Run(ctx, r)
}

// newStorage builds the storage backend selected by driver, returning the
// readiness probes and a cleanup for whatever connections it opened.
func newStorage(ctx context.Context, driver string, log *slog.Logger) (notifications.Storage, []func(context.Context) error, func(), error) {
	noop := func() {}

	switch driver {
	case "memory":
		return notifications.NewMemoryStorage(), nil, noop, nil

	case "postgres":
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return nil, nil, noop, err
		}
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, noop, err
		}
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			pool.Close()
			return nil, nil, noop, err
		}
		return notifications.NewPostgresStorage(pool),
			[]func(context.Context) error{pg.Healthcheck(pool)},
			pool.Close, nil

	case "mongo":
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return nil, nil, noop, err
		}
		db, err := mongo.NewWithDatabase(ctx, mongoCfg)
		if err != nil {
			return nil, nil, noop, err
		}
		cleanup := func() { _ = db.Client().Disconnect(context.Background()) }
		return notifications.NewMongoStorage(db),
			[]func(context.Context) error{mongo.Healthcheck(db.Client())},
			cleanup, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown storage driver %q", driver)
	}
}
