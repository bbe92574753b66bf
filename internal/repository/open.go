package repository

import (
	"context"

	"eventhub/internal/config"
	"eventhub/internal/database"
)

// Open connects the configured driver and prepares its schema. The returned
// func releases the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, func(context.Context) error, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.MigrateOnStart {
			if err := MigratePostgres(cfg.PostgresURL); err != nil {
				return nil, nil, err
			}
		}
		db, err := database.NewPostgresDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(context.Context) error { return db.Close() }
		return NewPostgresRepository(db), closeFn, nil

	default:
		client, db, err := database.NewMongoDatabase(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := NewMongoRepository(db)

		indexCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, client.Disconnect, nil
	}
}
