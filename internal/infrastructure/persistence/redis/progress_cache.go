package redis

import (
	"context"
	"errors"

	"github.com/planvault/degree-audit/internal/domain/fulfillment"
)

// ProgressCache stores computed program progress rollups keyed by plan-program
// link. It implements query.ProgressCache: a miss is reported as (nil, nil)
// so callers fall through to recomputation without branching on cache errors.
type ProgressCache struct {
	cache *Cache
}

// NewProgressCache creates a new ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{cache: cache}
}

// GetProgress returns the cached rollup for a plan-program link, or nil when
// no entry exists.
func (p *ProgressCache) GetProgress(ctx context.Context, planProgramID string) (*fulfillment.ProgramProgress, error) {
	var progress fulfillment.ProgramProgress
	err := p.cache.Get(ctx, ProgressKey(planProgramID), &progress)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &progress, nil
}

// SetProgress caches a rollup for a plan-program link.
func (p *ProgressCache) SetProgress(ctx context.Context, planProgramID string, progress *fulfillment.ProgramProgress) error {
	if progress == nil {
		return nil
	}
	return p.cache.Set(ctx, ProgressKey(planProgramID), progress, TTLProgress)
}

// InvalidateProgress drops cached rollups for the given plan-program links.
// Called from the fulfillment.recomputed event handler.
func (p *ProgressCache) InvalidateProgress(ctx context.Context, planProgramIDs ...string) error {
	if len(planProgramIDs) == 0 {
		return nil
	}
	keys := make([]string, len(planProgramIDs))
	for i, id := range planProgramIDs {
		keys[i] = ProgressKey(id)
	}
	return p.cache.Delete(ctx, keys...)
}
