// Package store caches elevation profile responses at the provider
// boundary. The DSM raster is static, so a (start, end, sample count)
// request always yields the same profile; caching it spares the elevation
// service during repeated scans from the same observer point.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// CacheStats summarizes the cache contents.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Expired int64 `json:"expired"`
}

// Store persists serialized elevation profiles keyed by request hash.
type Store interface {
	// GetProfile returns the cached payload for key, or nil with no error
	// on a miss or an expired entry.
	GetProfile(ctx context.Context, key string) ([]byte, error)

	// PutProfile stores a payload under key with the given TTL, replacing
	// any previous entry.
	PutProfile(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Prune deletes expired entries and returns how many were removed.
	Prune(ctx context.Context) (int64, error)

	// Stats reports entry counts.
	Stats(ctx context.Context) (CacheStats, error)

	Close() error
}

// Open creates a Store for the configured driver and runs its migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		st, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	case "postgres":
		st, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
