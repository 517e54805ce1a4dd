package dsm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/scan"
	"github.com/kaishiraishi/sightline/internal/store"
)

// CachedProvider decorates a scan.Provider with a persistent profile cache.
// The surface model is static over the cache TTL, so identical requests
// always produce identical profiles. Cache failures degrade to a live fetch.
type CachedProvider struct {
	inner scan.Provider
	cache store.Store
	ttl   time.Duration
}

// NewCachedProvider wraps inner with cache. A non-positive ttl disables
// expiry checks on write (entries still expire via Prune if set later).
func NewCachedProvider(inner scan.Provider, cache store.Store, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache, ttl: ttl}
}

// Profile serves from the cache when possible, fetching and storing on miss.
func (p *CachedProvider) Profile(ctx context.Context, start, end geodesy.Point, sampleCount int) (*scan.Profile, error) {
	key := profileKey(start, end, sampleCount)

	if data, err := p.cache.GetProfile(ctx, key); err != nil {
		zap.L().Warn("profile cache read failed", zap.Error(err))
	} else if data != nil {
		var profile scan.Profile
		if err := json.Unmarshal(data, &profile); err != nil {
			zap.L().Warn("profile cache entry corrupt", zap.String("key", key), zap.Error(err))
		} else {
			return &profile, nil
		}
	}

	profile, err := p.inner.Profile(ctx, start, end, sampleCount)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(profile); err == nil {
		if err := p.cache.PutProfile(ctx, key, data, p.ttl); err != nil {
			zap.L().Warn("profile cache write failed", zap.Error(err))
		}
	}
	return profile, nil
}

// profileKey derives a stable cache key from the request parameters.
// Coordinates are truncated at ~1e-9 degrees, well below raster resolution.
func profileKey(start, end geodesy.Point, sampleCount int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%.9f,%.9f|%.9f,%.9f|%d", start.Lng, start.Lat, end.Lng, end.Lat, sampleCount)
	return hex.EncodeToString(h.Sum(nil))
}
