package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/revalidate"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.New("error").Fatal("Config init error", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.Kafka.Brokers) == 0 {
		log.Error("KAFKA_BROKERS is not set")
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		os.Exit(1)
	}

	handler := revalidate.NewHandler(revalidate.NewRedisStore(rdb), log)
	reader := kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)

	log.Info("Consumer connected",
		zap.String("topic", cfg.Kafka.Topic),
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("group_id", cfg.Kafka.GroupID),
	)
	if err := kafka.NewConsumer(reader, handler.Handle, log).Run(ctx); err != nil {
		log.Error("Consumer stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Consumer stopped")
}
