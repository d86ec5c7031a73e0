package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Spok95/train-status-bot/internal/bot"
	"github.com/Spok95/train-status-bot/internal/config"
	"github.com/Spok95/train-status-bot/internal/domain/access"
	"github.com/Spok95/train-status-bot/internal/infra/db"
	httpx "github.com/Spok95/train-status-bot/internal/infra/http"
	"github.com/Spok95/train-status-bot/internal/infra/logger"
	"github.com/Spok95/train-status-bot/internal/infra/telegram"
	filestore "github.com/Spok95/train-status-bot/internal/store/file"
	pgstore "github.com/Spok95/train-status-bot/internal/store/pg"
	"github.com/Spok95/train-status-bot/internal/trains"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store access.Store
	switch cfg.Storage.Backend {
	case "postgres":
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		store = pgstore.New(pool)
		log.Info("db connected")
	default:
		// нечитаемый файл коллекции — фатально: лучше не стартовать,
		// чем молча потерять состояние
		fs, err := filestore.New(cfg.Storage.Dir)
		if err != nil {
			log.Error("state load failed", "dir", cfg.Storage.Dir, "err", err)
			return
		}
		store = fs
		log.Info("state loaded", "dir", cfg.Storage.Dir)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("telegram init failed", "err", err)
		return
	}

	adminIDs := make([]string, 0, len(cfg.Telegram.AdminIDs))
	for _, id := range cfg.Telegram.AdminIDs {
		adminIDs = append(adminIDs, strconv.FormatInt(id, 10))
	}

	gateway := telegram.NewGateway(api)
	dispatcher := access.NewDispatcher(gateway, log, adminIDs, cfg.Notify.SendTimeout, cfg.Notify.Workers)
	engine := access.NewEngine(store, adminIDs, dispatcher, log)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	b := bot.New(api, log, engine, dispatcher, trains.Unconfigured{})
	log.Info("bot polling started", "account", api.Self.UserName)
	if err := b.Run(ctx, cfg.Telegram.PollTimeout); err != nil && ctx.Err() == nil {
		log.Error("bot stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
