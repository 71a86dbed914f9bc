package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     required:"true"`
	Port     string `envconfig:"POSTGRES_PORT"     required:"true"`
	User     string `envconfig:"POSTGRES_USER"     required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB"       required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"transfer-events"`
	Workers int      `envconfig:"KAFKA_WORKERS" default:"3"`
}

type MongoConfig struct {
	URI        string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database   string        `envconfig:"MONGO_DATABASE" default:"distribute_bank"`
	Collection string        `envconfig:"MONGO_COLLECTION" default:"notifications"`
	Timeout    time.Duration `envconfig:"MONGO_TIMEOUT" default:"10s"`
}

type ClearingConfig struct {
	MinDelay    time.Duration `envconfig:"CLEARING_MIN_DELAY" default:"1s"`
	MaxDelay    time.Duration `envconfig:"CLEARING_MAX_DELAY" default:"3s"`
	SuccessRate float64       `envconfig:"CLEARING_SUCCESS_RATE" default:"0.95"`
}

type ReconciliationConfig struct {
	Interval time.Duration `envconfig:"RECONCILIATION_INTERVAL" default:"5m"`
}

// Config общая конфигурация сервисов конвейера.
// Каждый бинарь читает только нужные ему секции.
type Config struct {
	HTTPPort       string `envconfig:"APP_PORT" default:"8080"`
	DB             DBConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Mongo          MongoConfig
	Clearing       ClearingConfig
	Reconciliation ReconciliationConfig
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: не удалось загрузить файл %s, используются только системные переменные окружения: %v", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	return &cfg, nil
}

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
