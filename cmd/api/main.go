package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jayshxd/Open-Feast/internal/config"
	"github.com/Jayshxd/Open-Feast/internal/db"
	"github.com/Jayshxd/Open-Feast/internal/logger"
	"github.com/Jayshxd/Open-Feast/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

// Backends holds the optional connections; nil fields fall back to local behaviour.
type Backends struct {
	Postgres *pgxpool.Pool
	Redis    *redis.Client
	Mongo    *mongo.Database
}

type mainDeps struct {
	loadConfig      func() config.Config
	newLogger       func(config.Config) (*slog.Logger, func() error)
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	connectMongo    func(config.Config) (*mongo.Database, error)
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, Backends, *slog.Logger, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		newLogger:       logger.New,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		connectMongo:    db.ConnectMongo,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	log, closeLog := deps.newLogger(cfg)
	defer func() { _ = closeLog() }()

	var backends Backends
	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		log.Warn("postgres connection failed", "error", err)
	}
	backends.Postgres = pg
	backends.Redis = deps.connectRedis(cfg)

	mdb, err := deps.connectMongo(cfg)
	if err != nil {
		log.Warn("mongo connection failed, image uploads disabled", "error", err)
	}
	backends.Mongo = mdb

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, backends, log, signals, nil); err != nil {
		log.Error("server exited with error", "error", err)
	}
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and the expiry scheduler and waits for
// termination signals.
func Run(ctx context.Context, cfg config.Config, backends Backends, log *slog.Logger, signals <-chan os.Signal, listen ListenFunc) error {
	if log == nil {
		log = slog.Default()
	}
	srv := server.NewServer(cfg, backends.Postgres, backends.Redis, backends.Mongo, log)
	defer srv.Close()

	if err := srv.Expiry.Start(); err != nil {
		return err
	}
	defer func() { <-srv.Expiry.Stop().Done() }()

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.ServerPort)
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if backends.Postgres != nil {
		backends.Postgres.Close()
	}
	if backends.Redis != nil {
		_ = backends.Redis.Close()
	}
	if backends.Mongo != nil {
		_ = backends.Mongo.Client().Disconnect(shutdownCtx)
	}
	return nil
}
