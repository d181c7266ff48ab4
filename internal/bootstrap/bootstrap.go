// Package bootstrap opens the shared infrastructure used by the API and the scheduler.
package bootstrap

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-classroom-api/internal/config"
	"github.com/noah-isme/gema-classroom-api/internal/database"
	"github.com/noah-isme/gema-classroom-api/internal/events"
)

// Infrastructure holds the opened connections. Redis and NATS are optional.
type Infrastructure struct {
	DB     *gorm.DB
	Redis  *redis.Client
	NATS   *nats.Conn
	Events events.Publisher
}

// NewLogger builds the root logger for a process.
func NewLogger(cfg config.Config, process string) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.AppEnv == "development" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.AppName).
		Str("process", process).
		Str("env", cfg.AppEnv).
		Logger()
}

// Open connects to the database, runs migrations and wires the optional brokers.
func Open(cfg config.Config, logger zerolog.Logger) (*Infrastructure, error) {
	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	infra := &Infrastructure{DB: db, Events: events.NopPublisher{}}

	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, continuing without it")
		} else {
			infra.Redis = client
		}
	}

	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, continuing without it")
		} else {
			infra.NATS = conn
		}
	}

	if infra.Redis != nil || infra.NATS != nil {
		infra.Events = events.NewBrokerPublisher(infra.Redis, infra.NATS, cfg.EventsChannel, logger)
	}

	return infra, nil
}

// Close releases every open connection.
func (i *Infrastructure) Close() {
	if i.NATS != nil {
		_ = i.NATS.Drain()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
	if sqlDB, err := i.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
