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
	"distribute-bank/internal/config"
	"distribute-bank/internal/db"
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/server"
	"distribute-bank/internal/service"
	"distribute-bank/internal/storage/postgres"
	"distribute-bank/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionApp входной сервис конвейера: HTTP-приём переводов
// плюс consumer группы transaction-service-status, ведущий статусы.
type TransactionApp struct {
	log      *slog.Logger
	logFile  *os.File
	cfg      *config.Config
	server   *server.Server
	pool     *pgxpool.Pool
	producer kafka.Producer
	consumer *kafka.Consumer
}

func NewTransactionApp() (*TransactionApp, error) {
	loggerWithFile := logger.NewLoggerWithFile("transaction.log", "transaction-service")
	log := loggerWithFile.Logger
	log.Info("инициализация transaction-service")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}
	log.Info("конфигурация загружена", slog.String("port", cfg.HTTPPort))

	log.Info("выполнение миграций базы данных")
	if err := db.RunMigrations(cfg.DB.MigrationURL(), "migrations"); err != nil {
		return nil, fmt.Errorf("ошибка выполнения миграций: %w", err)
	}
	log.Info("миграции успешно применены")

	pool, err := newPool(cfg, "transaction-service", log)
	if err != nil {
		return nil, err
	}

	log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
	producer, err := kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
	}

	transactionRepo := postgres.NewTransactionRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	transactionService := service.NewTransactionService(transactionRepo, accountRepo, producer, log)

	consumer, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"transaction-service-status",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		kafka.EventHandlerFunc(transactionService.HandleStatusEvent),
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

	transferHandler := handlers.NewTransferHandler(transactionService)
	srv.Router.Post("/api/v1/transfers", transferHandler.CreateTransfer)
	srv.Router.Post("/api/v1/transfers/batch", transferHandler.CreateBatchTransfer)
	srv.Router.Get("/api/v1/transfers/{transactionID}", transferHandler.GetTransactionStatus)

	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))

	return &TransactionApp{
		log:      log,
		logFile:  loggerWithFile.LogFile,
		cfg:      cfg,
		server:   srv,
		pool:     pool,
		producer: producer,
		consumer: consumer,
	}, nil
}

func (a *TransactionApp) Run() error {
	a.log.Info("transaction-service запускается")

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
	a.pool.Close()

	closeLogFile(a.log, a.logFile)
	a.log.Info("приложение остановлено")
	return nil
}
