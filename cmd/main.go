package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/auth"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/cache"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/config"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/db"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/grpcserver"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/kafka"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/logger"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository/postgresql"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/server"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
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

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Application stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("Application gracefully stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	database, err := db.NewDb(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info("Connected to database", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	added, err := db.EnsureCategories(ctx, database, db.DefaultCategories)
	if err != nil {
		return err
	}
	log.Info("Categories seeded", zap.Int("added", added))

	repos := storage.Repositories{
		Products:   postgresql.NewProductRepo(database),
		Orders:     postgresql.NewOrderRepo(database),
		Categories: postgresql.NewCategoryRepo(database),
		Wishlist:   postgresql.NewWishlistRepo(database),
		Reviews:    postgresql.NewReviewRepo(database),
		Outbox:     postgresql.NewOutboxTaskRepo(),
	}

	categoryCache := cache.NewCategoryCache(repos.Categories, log.Named("cache"))
	if err := categoryCache.LoadInitialData(ctx); err != nil {
		return err
	}

	stg := storage.NewStorage(database, repos, categoryCache, cfg.Kafka.Topic, log.Named("storage"))
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	srv := server.New(stg, postgresql.NewUserRepo(database), tokens, log.Named("http"), cfg.CORSOrigins)

	var producer kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = kafka.NewKafkaProducer(cfg.Kafka.Brokers, log.Named("kafka"))
	} else {
		producer = kafka.NewConsoleProducer(log.Named("kafka"))
	}
	publisher := kafka.NewPublisher(database, repos.Outbox, producer, kafka.PublisherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		MaxAttempts:  cfg.Outbox.MaxAttempts,
		Lease:        cfg.Outbox.Lease,
	}, log)
	defer publisher.Shutdown()

	health := grpcserver.NewServer(database, log, 5*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, cfg.HTTPPort) })
	g.Go(func() error { return health.Run(gctx, cfg.GRPCPort) })
	g.Go(func() error { return publisher.Run(gctx) })

	log.Info("Services started", zap.String("http_port", cfg.HTTPPort), zap.String("grpc_port", cfg.GRPCPort))
	return g.Wait()
}
