package redis

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/pkg/logger"
)

// CatalogCache memoizes filter-evaluation results in front of a slower
// CourseSource (the query planner over PostgreSQL). Keys are derived from a
// BLAKE2b digest of the filter's canonical JSON encoding scoped by academic
// year, so structurally identical filters across programs share entries.
//
// Cache failures degrade to the underlying source; they are never surfaced
// to callers.
type CatalogCache struct {
	cache  *Cache
	source fulfillment.CourseSource
	ttl    time.Duration
	log    *logger.Logger
}

// NewCatalogCache wraps source with a Redis read-through cache. A zero ttl
// falls back to TTLCatalogResult.
func NewCatalogCache(cache *Cache, source fulfillment.CourseSource, ttl time.Duration, log *logger.Logger) *CatalogCache {
	if log == nil {
		log = logger.Default()
	}
	if ttl <= 0 {
		ttl = TTLCatalogResult
	}
	return &CatalogCache{
		cache:  cache,
		source: source,
		ttl:    ttl,
		log:    log.With(logger.Component("catalog_cache")),
	}
}

// CoursesByFilter returns the courses matching filter for the given academic
// year, consulting Redis before the underlying source.
func (c *CatalogCache) CoursesByFilter(ctx context.Context, filter catalog.CourseFilter, academicYearID string) ([]*catalog.Course, error) {
	key, ok := c.keyFor(filter, academicYearID)
	if ok {
		var cached []*catalog.Course
		err := c.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("catalog cache read failed", logger.Err(err))
		}
	}

	courses, err := c.source.CoursesByFilter(ctx, filter, academicYearID)
	if err != nil {
		return nil, err
	}

	if ok {
		if err := c.cache.Set(ctx, key, courses, c.ttl); err != nil {
			c.log.Warn("catalog cache write failed", logger.Err(err))
		}
	}

	return courses, nil
}

// Invalidate drops every cached result for one academic year. Called after
// catalog ingestion replaces an edition.
func (c *CatalogCache) Invalidate(ctx context.Context, academicYearID string) error {
	return c.cache.DeleteByPattern(ctx, PrefixCatalog+academicYearID+":*")
}

// keyFor digests the filter's canonical encoding. Filters that fail to
// encode are served uncached.
func (c *CatalogCache) keyFor(filter catalog.CourseFilter, academicYearID string) (string, bool) {
	data, err := catalog.EncodeFilter(filter)
	if err != nil {
		c.log.Warn("filter digest failed", logger.Err(err))
		return "", false
	}
	sum := blake2b.Sum256(data)
	return CatalogKey(academicYearID, hex.EncodeToString(sum[:16])), true
}
