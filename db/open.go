package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Istiyak4099/Airdrop/config"
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		logger.Warn("using in-memory storage; data is lost on restart")
		return NewMemoryStore(), nil
	case config.DriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	case config.DriverMongo:
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
