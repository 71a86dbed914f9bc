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
	"distribute-bank/internal/kafka"
	"distribute-bank/internal/server"
	"distribute-bank/internal/service"
	"distribute-bank/internal/storage"
	"distribute-bank/internal/storage/memory"
	"distribute-bank/internal/storage/mongodb"
	"distribute-bank/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// NotificationApp журнал уведомлений: две consumer-группы (успехи и отказы
// обрабатываются независимо) и HTTP для чтения журнала.
// Без MONGO_URI в окружении журнал живёт в памяти - удобно для локального запуска.
type NotificationApp struct {
	log            *slog.Logger
	logFile        *os.File
	cfg            *config.Config
	server         *server.Server
	store          storage.NotificationStore
	consumerOK     *kafka.Consumer
	consumerFailed *kafka.Consumer
}

func NewNotificationApp() (*NotificationApp, error) {
	loggerWithFile := logger.NewLoggerWithFile("notification.log", "notification-service")
	log := loggerWithFile.Logger
	log.Info("инициализация notification-service")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	log.Info("конфигурация загружена",
		slog.String("kafka_topic", cfg.Kafka.Topic),
		slog.String("mongo_database", cfg.Mongo.Database))

	var store storage.NotificationStore
	if os.Getenv("MONGO_URI") != "" {
		log.Info("подключение к MongoDB", slog.String("uri", cfg.Mongo.URI))
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.Timeout)
		defer cancel()

		store, err = mongodb.NewMongoStore(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к MongoDB: %w", err)
		}
		log.Info("подключение к MongoDB установлено")
	} else {
		log.Info("MONGO_URI не задан, журнал уведомлений в памяти")
		store = memory.NewMemoryStore()
	}

	notificationService := service.NewNotificationService(store, log)

	consumerOK, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"notification-service-success",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		kafka.EventHandlerFunc(notificationService.HandleSuccess),
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания kafka consumer: %w", err)
	}

	consumerFailed, err := kafka.NewConsumer(
		cfg.Kafka.Brokers,
		"notification-service-failed",
		cfg.Kafka.Topic,
		cfg.Kafka.Workers,
		kafka.EventHandlerFunc(notificationService.HandleFailed),
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

	notificationHandler := handlers.NewNotificationHandler(notificationService)
	srv.Router.Get("/api/v1/notifications", notificationHandler.ListNotifications)
	srv.Router.Get("/api/v1/notifications/{transactionID}", notificationHandler.GetNotification)

	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))

	return &NotificationApp{
		log:            log,
		logFile:        loggerWithFile.LogFile,
		cfg:            cfg,
		server:         srv,
		store:          store,
		consumerOK:     consumerOK,
		consumerFailed: consumerFailed,
	}, nil
}

func (a *NotificationApp) Run() error {
	a.log.Info("notification-service запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.consumerOK.Start(ctx); err != nil {
		return fmt.Errorf("ошибка запуска consumer: %w", err)
	}
	if err := a.consumerFailed.Start(ctx); err != nil {
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

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()

	if err := a.server.Shutdown(ctxClose); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}
	if err := a.consumerOK.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}
	if err := a.consumerFailed.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии kafka consumer", slog.String("error", err.Error()))
	}
	if err := a.store.Close(ctxClose); err != nil {
		a.log.Error("ошибка при закрытии хранилища уведомлений", slog.String("error", err.Error()))
	}

	closeLogFile(a.log, a.logFile)
	a.log.Info("приложение остановлено")
	return nil
}
