package store

import (
	"context"
	"fmt"

	"github.com/baxromumarov/velocity/internal/config"
)

// Open connects the configured backend. Postgres schemas are migrated
// before the store is returned.
func Open(ctx context.Context, cfg config.StoreConfig) (UserStore, error) {
	switch cfg.Driver {
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "postgres":
		if err := RunMigrations(cfg.PostgresURL); err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, cfg.PostgresURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
