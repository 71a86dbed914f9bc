package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"distribute-bank/internal/config"
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/service"
	"distribute-bank/pkg/logger"
)

// ClearingApp имитатор клирингового центра: только consumer и producer,
// ни БД, ни HTTP ему не нужны.
type ClearingApp struct {
	log      *slog.Logger
	logFile  *os.File
	cfg      *config.Config
	producer kafka.Producer
	consumer *kafka.Consumer
}

func NewClearingApp() (*ClearingApp, error) {
	loggerWithFile := logger.NewLoggerWithFile("clearing.log", "clearing-service")
	log := loggerWithFile.Logger
	log.Info("инициализация clearing-service")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}
	log.Info("конфигурация загружена",
		slog.Duration("min_delay", cfg.Clearing.MinDelay),
		slog.Duration("max_delay", cfg.Clearing.MaxDelay),
		slog.Float64("success_rate", cfg.Clearing.SuccessRate))

	producer, err := kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
	}

	clearingService := service.NewClearingService(
		producer,
		cfg.Clearing.MinDelay,
		cfg.Clearing.MaxDelay,
		cfg.Clearing.SuccessRate,
		log,
	)

	consumer, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"clearing-service",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		clearingService,
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	return &ClearingApp{
		log:      log,
		logFile:  loggerWithFile.LogFile,
		cfg:      cfg,
		producer: producer,
		consumer: consumer,
	}, nil
}

func (a *ClearingApp) Run() error {
	a.log.Info("clearing-service запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.consumer.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}
	a.log.Info("kafka consumer запущен, ожидание сообщений...")

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdownChan
	a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))

	a.log.Info("приложение останавливается")
	cancel()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()

	if err := a.consumer.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}
	if err := a.producer.Close(); err != nil {
		a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
	}

	closeLogFile(a.log, a.logFile)
	a.log.Info("приложение остановлено")
	return nil
}
