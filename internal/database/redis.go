package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eventhub/internal/config"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	slog.Info("Connected to redis successfully")
	return client, nil
}
