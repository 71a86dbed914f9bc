package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"distribute-bank/internal/api/handlers"
	"distribute-bank/internal/api/middlew"
	"distribute-bank/internal/cache"
	"distribute-bank/internal/config"
	"distribute-bank/internal/server"
	"distribute-bank/internal/service"
	"distribute-bank/internal/storage/postgres"
	"distribute-bank/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ReconciliationApp плановая сверка БД и кеша плюс HTTP для ручной сверки
type ReconciliationApp struct {
	log      *slog.Logger
	logFile  *os.File
	cfg      *config.Config
	server   *server.Server
	pool     *pgxpool.Pool
	rdb      *redis.Client
	balances *cache.BalanceCache
	service  *service.ReconciliationService
}

func NewReconciliationApp() (*ReconciliationApp, error) {
	loggerWithFile := logger.NewLoggerWithFile("reconciliation.log", "reconciliation-service")
	log := loggerWithFile.Logger
	log.Info("инициализация reconciliation-service")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	pool, err := newPool(cfg, "reconciliation-service", log)
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
	reconService := service.NewReconciliationService(accountRepo, balances, cfg.Reconciliation.Interval, log)

	srv := server.NewServer(cfg.HTTPPort)
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middleware.Recoverer)

	reconHandler := handlers.NewReconciliationHandler(reconService)
	srv.Router.Get("/api/v1/reconciliation/status", reconHandler.Status)
	srv.Router.Post("/api/v1/reconciliation/execute", reconHandler.Execute)
	srv.Router.Post("/api/v1/reconciliation/{accountID}", reconHandler.ReconcileAccount)

	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))

	return &ReconciliationApp{
		log:      log,
		logFile:  loggerWithFile.LogFile,
		cfg:      cfg,
		server:   srv,
		pool:     pool,
		rdb:      rdb,
		balances: balances,
		service:  reconService,
	}, nil
}

func (a *ReconciliationApp) Run() error {
	a.log.Info("reconciliation-service запускается")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.service.Run(ctx)
	}()

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
	wg.Wait()

	ctxClose, cancelClose := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelClose()

	if err := a.server.Shutdown(ctxClose); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
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
