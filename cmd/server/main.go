package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/api"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/config"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/events"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/lock"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/paygate"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/memory"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/postgres"
	redisrepo "github.com/trthanhdo41/air-purifier-hcm-sub001/internal/repository/redis"
	"github.com/trthanhdo41/air-purifier-hcm-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	customerRepos, systemRepos, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	defer closeStore()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.PaymentTopic, cfg.Kafka.Brokers...)
	}
	defer publisher.Close()

	gateway := paygate.NewClient(cfg.Payment, logger)
	if !gateway.Configured() {
		logger.Warn("PAYMENT_API_KEY not set, online payment sessions will fail")
	}

	svc := &api.Services{
		Orders: service.NewOrderService(customerRepos, logger,
			service.WithPriceVerification(cfg.Orders.VerifyPrices),
		),
		Payments: service.NewPaymentService(cfg.Payment, gateway, customerRepos, logger),
		Webhooks: service.NewWebhookService(systemRepos,
			lock.NewRedisLocker(redisClient, "payment-webhook", 10*time.Second),
			publisher,
			logger,
		),
		Status:   service.NewStatusService(customerRepos, logger),
		Sessions: redisrepo.NewSessionStore(redisClient, logger),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(cfg, svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Storefront API listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	zcfg.Level = level

	return zcfg.Build()
}

// openStore returns repositories for the restricted customer tier and the
// elevated tier used by payment reconciliation.
func openStore(cfg *config.Config, logger *zap.Logger) (*repository.Repositories, *repository.Repositories, func(), error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Running with in-memory store, data is lost on restart")
		repos := memory.NewStore().Repositories()
		return repos, repos, func() {}, nil
	}

	elevated, err := postgres.NewConnection(cfg.Database, cfg.Database.Elevated)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.RunMigrations(elevated, cfg.Database.MigrationsPath); err != nil {
		elevated.Close()
		return nil, nil, nil, err
	}

	restricted := elevated
	if cfg.Database.Restricted != cfg.Database.Elevated {
		restricted, err = postgres.NewConnection(cfg.Database, cfg.Database.Restricted)
		if err != nil {
			elevated.Close()
			return nil, nil, nil, err
		}
	}

	closeAll := func() {
		for _, db := range uniqueDBs(restricted, elevated) {
			db.Close()
		}
	}

	return postgres.NewRepositories(restricted, logger), postgres.NewRepositories(elevated, logger), closeAll, nil
}

func uniqueDBs(a, b *sql.DB) []*sql.DB {
	if a == b {
		return []*sql.DB{a}
	}
	return []*sql.DB{a, b}
}
