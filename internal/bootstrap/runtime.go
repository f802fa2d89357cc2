// Package bootstrap wires the process-level dependencies shared by the cmd tools.
package bootstrap

import (
	"fmt"
	"log/slog"

	"agrisocial/internal/cache"
	"agrisocial/internal/config"
	"agrisocial/internal/database"
	"agrisocial/internal/middleware"
	"agrisocial/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
}

// InitRuntime connects to the database and Redis and optionally seeds the
// built-in communities. The Redis client is nil when Redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := SeedBuiltIns(db, opts); err != nil {
		return nil, nil, err
	}

	return db, r, nil
}

// SeedBuiltIns creates the built-in communities when enabled.
func SeedBuiltIns(db *gorm.DB, opts Options) error {
	if !opts.SeedBuiltIns {
		return nil
	}
	communities, err := seed.BuiltIns(db)
	if err != nil {
		return fmt.Errorf("failed to seed built-in communities: %w", err)
	}
	middleware.Logger.Info("built-in communities ensured", slog.Int("count", len(communities)))
	return nil
}
