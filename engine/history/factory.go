package history

import (
	"context"
	"fmt"

	"github.com/compozy/flowlint/engine/infra/cache"
	"github.com/compozy/flowlint/engine/infra/postgres"
	"github.com/compozy/flowlint/pkg/config"
	"github.com/compozy/flowlint/pkg/logger"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Handle bundles an opened store with the function releasing its resources.
type Handle struct {
	Store Store
	close func() error
}

func (h *Handle) Close() error {
	if h == nil || h.close == nil {
		return nil
	}
	return h.close()
}

// Open builds the store selected by cfg.Driver, wrapping it in a CachedStore
// when cfg.CacheSize is positive.
func Open(ctx context.Context, cfg *config.HistoryConfig) (*Handle, error) {
	if cfg == nil {
		return &Handle{Store: NoopStore{}}, nil
	}
	log := logger.FromContext(ctx).With("component", "history", "driver", cfg.Driver)
	var (
		store   Store
		closeFn func() error
	)
	switch cfg.Driver {
	case "", DriverMemory:
		mem := NewMemoryStore()
		if cfg.File != "" {
			seed, err := LoadStatsFile(cfg.File)
			if err != nil {
				return nil, err
			}
			mem = NewMemoryStore(seed...)
			log.Debug("Loaded execution stats", "file", cfg.File, "workflows", len(seed))
		}
		store = mem
	case DriverPostgres:
		pg, err := postgres.NewStore(ctx, &postgres.Config{ConnString: cfg.DSN.Value()})
		if err != nil {
			return nil, fmt.Errorf("opening postgres history store: %w", err)
		}
		store = NewPostgresStore(pg.Pool(), cfg.Table)
		closeFn = pg.Close
	case DriverRedis:
		rd, err := cache.NewRedis(ctx, &cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword.Value(),
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("opening redis history store: %w", err)
		}
		store = NewRedisStore(rd.Client(), cfg.KeyPrefix)
		closeFn = rd.Close
	default:
		return nil, fmt.Errorf("unknown history driver %q", cfg.Driver)
	}
	if cfg.CacheSize > 0 {
		store = NewCachedStore(store, cfg.CacheSize, cfg.CacheTTL)
	}
	return &Handle{Store: store, close: closeFn}, nil
}
