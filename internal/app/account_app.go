package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distribute-bank/internal/api/handlers"
	"distribute-bank/internal/api/middlew"
	"distribute-bank/internal/cache"
	"distribute-bank/internal/config"
	"distribute-bank/internal/db"
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/server"
	"distribute-bank/internal/service"
	"distribute-bank/internal/storage/postgres"
	"distribute-bank/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// AccountApp сервис счетов: HTTP API для открытия и пополнения счетов
// плюс consumer группы account-service - этап атомарного списания из кеша.
type AccountApp struct {
	log      *slog.Logger
	logFile  *os.File
	cfg      *config.Config
	server   *server.Server
	pool     *pgxpool.Pool
	rdb      *redis.Client
	balances *cache.BalanceCache
	producer kafka.Producer
	consumer *kafka.Consumer
}

func NewAccountApp() (*AccountApp, error) {
	loggerWithFile := logger.NewLoggerWithFile("account.log", "account-service")
	log := loggerWithFile.Logger
	log.Info("инициализация account-service")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(cfg.DB.MigrationURL(), "migrations"); err != nil {
		return nil, fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	pool, err := newPool(cfg, "account-service", log)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}
	log.Info("подключение к Redis установлено", slog.String("addr", cfg.Redis.Addr))

	producer, err := kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
	}

	balances := cache.NewBalanceCache(rdb, log)
	accountRepo := postgres.NewAccountRepository(pool)
	mutator := service.NewBalanceMutator(accountRepo, balances, log)
	accountService := service.NewAccountService(accountRepo, mutator, balances, log)
	debitService := service.NewDebitService(rdb, producer, log)

	consumer, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"account-service",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		debitService,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	srv := server.NewServer(cfg.HTTPPort)
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middleware.Recoverer)

	accountHandler := handlers.NewAccountHandler(accountService)
	srv.Router.Post("/api/v1/accounts", accountHandler.CreateAccount)
	srv.Router.Get("/api/v1/accounts/{accountID}", accountHandler.GetAccount)
	srv.Router.Get("/api/v1/accounts/{accountID}/balance", accountHandler.GetBalance)
	srv.Router.Post("/api/v1/accounts/{accountID}/deposit", accountHandler.Deposit)

	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))

	return &AccountApp{
		log:      log,
		logFile:  loggerWithFile.LogFile,
		cfg:      cfg,
		server:   srv,
		pool:     pool,
		rdb:      rdb,
		balances: balances,
		producer: producer,
		consumer: consumer,
	}, nil
}

func (a *AccountApp) Run() error {
	a.log.Info("account-service запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.consumer.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	cancel()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelClose()

	if err := a.server.Shutdown(ctxClose); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}
	if err := a.consumer.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}
	if err := a.producer.Close(); err != nil {
		a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
	}

	// дожидаемся отложенных удалений кеша
	a.balances.Close()
	if err := a.rdb.Close(); err != nil {
		a.log.Error("ошибка при закрытии Redis", slog.String("error", err.Error()))
	}
	a.pool.Close()

	closeLogFile(a.log, a.logFile)
	a.log.Info("приложение остановлено")
	return nil
}
