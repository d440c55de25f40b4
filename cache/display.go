// Package cache holds the TTL'd display-info projection: a denormalized user
// record fetched for UI display, refreshed on a fixed time-to-live or on
// explicit force, and cleared on logout.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"

	"go.pilab.hu/authbridge/domain"
	"go.pilab.hu/authbridge/dto"
)

// DefaultTTL is how long a fetched projection stays fresh.
const DefaultTTL = 30 * time.Minute

// The cache holds a single object; the slot key never varies.
const slotKey = "display_info"

// Source fetches the display projection from the backend. *client.Backend
// satisfies it.
type Source interface {
	Me(ctx context.Context, token domain.SessionToken) (*dto.DisplayInfoResponse, error)
}

// DisplayCache caches the display-info projection with a TTL.
type DisplayCache struct {
	source Source
	cache  *ttlcache.Cache[string, *domain.DisplayInfo]
	log    zerolog.Logger
}

// NewDisplayCache creates a DisplayCache. A non-positive ttl falls back to
// DefaultTTL.
func NewDisplayCache(source Source, ttl time.Duration, logger zerolog.Logger) *DisplayCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := ttlcache.New(
		ttlcache.WithTTL[string, *domain.DisplayInfo](ttl),
		ttlcache.WithDisableTouchOnHit[string, *domain.DisplayInfo](),
	)
	go c.Start()

	return &DisplayCache{
		source: source,
		cache:  c,
		log:    logger.With().Str("component", "display_cache").Logger(),
	}
}

// Get returns the cached projection, fetching it when the slot is empty,
// expired, or force is set.
func (d *DisplayCache) Get(ctx context.Context, token domain.SessionToken, force bool) (*domain.DisplayInfo, error) {
	if !force {
		if item := d.cache.Get(slotKey); item != nil {
			d.log.Debug().Msg("display info cache hit")
			return item.Value(), nil
		}
	}

	res, err := d.source.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch display info: %w", err)
	}
	info, err := res.ToDisplayInfo()
	if err != nil {
		return nil, fmt.Errorf("normalize display info: %w", err)
	}

	d.cache.Set(slotKey, info, ttlcache.DefaultTTL)
	return info, nil
}

// Clear drops the cached projection. Called on logout.
func (d *DisplayCache) Clear() {
	d.cache.Delete(slotKey)
}

// Stop terminates the cache's expiry loop.
func (d *DisplayCache) Stop() {
	d.cache.Stop()
}
