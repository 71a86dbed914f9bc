package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distribute-bank/internal/cache"
	"distribute-bank/internal/config"
	"distribute-bank/internal/db"
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/service"
	"distribute-bank/internal/storage/postgres"
	"distribute-bank/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// LedgerApp проводка переводов по БД. Две consumer-группы одного сервиса:
// ledger-service берёт успехи клиринга, ledger-service-failed - отказы,
// чтобы медленная проводка не задерживала фиксацию отказов.
type LedgerApp struct {
	log            *slog.Logger
	logFile        *os.File
	cfg            *config.Config
	pool           *pgxpool.Pool
	rdb            *redis.Client
	balances       *cache.BalanceCache
	consumerOK     *kafka.Consumer
	consumerFailed *kafka.Consumer
}

func NewLedgerApp() (*LedgerApp, error) {
	loggerWithFile := logger.NewLoggerWithFile("ledger.log", "ledger-service")
	log := loggerWithFile.Logger
	log.Info("инициализация ledger-service")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(cfg.DB.MigrationURL(), "migrations"); err != nil {
		return nil, fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	pool, err := newPool(cfg, "ledger-service", log)
	if err != nil {
		return nil, err
	}

	rdb, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}
	log.Info("подключение к Redis установлено", slog.String("addr", cfg.Redis.Addr))

	balances := cache.NewBalanceCache(rdb, log)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	mutator := service.NewBalanceMutator(accountRepo, balances, log)
	ledgerService := service.NewLedgerService(mutator, transactionRepo, balances, log)

	consumerOK, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"ledger-service",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		kafka.EventHandlerFunc(ledgerService.HandleClearingSuccess),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	consumerFailed, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"ledger-service-failed",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		kafka.EventHandlerFunc(ledgerService.HandleClearingFailed),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	return &LedgerApp{
		log:            log,
		logFile:        loggerWithFile.LogFile,
		cfg:            cfg,
		pool:           pool,
		rdb:            rdb,
		balances:       balances,
		consumerOK:     consumerOK,
		consumerFailed: consumerFailed,
	}, nil
}

func (a *LedgerApp) Run() error {
	a.log.Info("ledger-service запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.consumerOK.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}
	if err := a.consumerFailed.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}
	a.log.Info("kafka consumers запущены, ожидание сообщений...")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdownChan
	a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))

	a.log.Info("приложение останавливается")
	cancel()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelClose()

	if err := a.consumerOK.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}
	if err := a.consumerFailed.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}

	a.balances.Close()
	if err := a.rdb.Close(); err != nil {
		a.log.Error("ошибка при закрытии Redis", slog.String("error", err.Error()))
	}
	a.pool.Close()

	closeLogFile(a.log, a.logFile)
	a.log.Info("приложение остановлено")
	return nil
}
