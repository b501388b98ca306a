package main

import (
	"context"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/clients/cache"
	"max.ks1230/expense-tracker/internal/clients/kafka"
	"max.ks1230/expense-tracker/internal/clients/tg"
	"max.ks1230/expense-tracker/internal/config"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/metrics"
	"max.ks1230/expense-tracker/internal/model/messages"
	"max.ks1230/expense-tracker/internal/model/rollover"
	"max.ks1230/expense-tracker/internal/model/storage"
	"max.ks1230/expense-tracker/internal/model/tracker"
	"max.ks1230/expense-tracker/internal/tracing"
)

func main() {
	defer logger.Sync()
	logger.Info("Bot init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config:", zap.Error(err))
	}

	closer, err := tracing.Init(conf.Tracing())
	if err != nil {
		logger.Fatal("failed to init tracing:", zap.Error(err))
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	st, closeStorage := initStorage(ctx, conf)
	defer closeStorage()

	opts := make([]tracker.Option, 0, 2)
	if conf.Memcached().Enabled() {
		mc, err := cache.NewMemcache(conf.Memcached())
		if err != nil {
			logger.Fatal("failed to init memcached:", zap.Error(err))
		}
		opts = append(opts, tracker.WithCache(mc))
	}
	if conf.Kafka().Enabled() {
		producer, err := kafka.NewProducer(conf.Kafka())
		if err != nil {
			logger.Fatal("failed to init kafka producer:", zap.Error(err))
		}
		defer producer.Close()
		opts = append(opts, tracker.WithEvents(producer))
	}
	sessions := tracker.New(st, conf.App(), opts...)

	client, err := tg.New(conf.Telegram())
	if err != nil {
		logger.Fatal("failed to init client:", zap.Error(err))
	}
	msgService := messages.NewService(client, sessions)

	metrics.Serve(ctx, conf.App().MetricsAddr())
	if conf.App().AutoRollover() {
		go rollover.NewSweeper(sessions, conf.App()).Run(ctx)
	}

	logger.Info("Bot init - end")
	client.ListenUpdates(ctx, msgService)
}

func initStorage(ctx context.Context, conf *config.Service) (tracker.Storage, func()) {
	switch conf.App().Storage() {
	case config.StoragePostgres:
		db, err := storage.NewPostgresStorage(conf.Postgres())
		if err != nil {
			logger.Fatal("failed to init postgres:", zap.Error(err))
		}
		if err = db.Migrate(ctx); err != nil {
			logger.Fatal("failed to migrate postgres:", zap.Error(err))
		}
		return db, func() {
			if err := db.Close(); err != nil {
				logger.Error("failed to close postgres", zap.Error(err))
			}
		}
	case config.StorageMemory:
		return storage.NewInMemStorage(), func() {}
	default:
		fs, err := storage.NewFileStorage(conf.App().DataDir())
		if err != nil {
			logger.Fatal("failed to init file storage:", zap.Error(err))
		}
		return fs, func() {}
	}
}
