package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"distribute-bank/internal/config"
	"distribute-bank/internal/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// newPool пул Postgres с общими для всех сервисов настройками
func newPool(cfg *config.Config, appName string, log *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg := db.PoolConfig{
		MaxConns:          50,
		MinConns:          5,
		HealthCheckPeriod: 30 * time.Second,
		PoolTimeout:       5 * time.Second,
		RetryAttempts:     5,
		RetryDelay:        1 * time.Second,
		ApplicationName:   appName,
	}

	pool, err := db.NewPool(context.Background(), cfg.DB.DSN(), poolCfg, log)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе данных: %w", err)
	}
	log.Info("подключение к базе данных установлено")
	return pool, nil
}

func closeLogFile(log *slog.Logger, logFile *os.File) {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
	}
}
