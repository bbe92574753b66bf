package database

import (
	"context"
	"fmt"
	"log/slog"

	"eventhub/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoDatabase connects to MongoDB and returns the configured database.
// The caller owns the client and must disconnect it on shutdown.
func NewMongoDatabase(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect mongo client", "error", err)
		}
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	slog.Info("Connected to mongo successfully", "database", cfg.MongoDatabase)
	return client, client.Database(cfg.MongoDatabase), nil
}
