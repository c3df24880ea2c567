package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/vijayrajbudala/GIS-Application/config"
)

// New creates a Store based on the configured backend.
//
// Supported backends:
//
//	"json"     - one file per key in DataDir (default)
//	"sqlite"   - SQLite database at DataDir/gisapp.db
//	"memory"   - in-memory (ephemeral, for testing)
//	"redis"    - Redis keys under RedisPrefix
//	"postgres" - kv_entries table reached through PostgresDSN
func New(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "json", "":
		return NewJsonFileStore(cfg.DataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(cfg.DataDir, "gisapp.db"))
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case "postgres":
		return ConnectPostgresWithRetry(cfg.PostgresDSN, 10, 2*time.Second)
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, memory, redis, postgres)", cfg.Backend)
	}
}
