// Package eventhandler contains reactions to domain events.
package eventhandler

import (
	"context"

	"github.com/planvault/degree-audit/internal/application/query"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON FULFILLMENTS RECOMPUTED
// A recompute makes every cached progress rollup for the plan's program links
// stale; drop them so the next progress query recomputes.
// ══════════════════════════════════════════════════════════════════════════════

// OnFulfillmentsRecomputed invalidates cached progress after a recompute.
type OnFulfillmentsRecomputed struct {
	cache query.ProgressCache
	log   *logger.Logger
}

// NewOnFulfillmentsRecomputed creates the handler.
func NewOnFulfillmentsRecomputed(cache query.ProgressCache, log *logger.Logger) *OnFulfillmentsRecomputed {
	if log == nil {
		log = logger.Default()
	}
	return &OnFulfillmentsRecomputed{cache: cache, log: log}
}

// Register subscribes the handler to the event bus.
func (h *OnFulfillmentsRecomputed) Register(bus shared.EventBus) error {
	return bus.Subscribe(shared.EventFulfillmentsRecomputed, h.Handle)
}

// Handle processes one recompute event.
func (h *OnFulfillmentsRecomputed) Handle(event shared.Event) error {
	recomputed, ok := event.(shared.FulfillmentsRecomputedEvent)
	if !ok {
		return nil
	}
	if h.cache == nil || len(recomputed.PlanProgramIDs) == 0 {
		return nil
	}

	ctx := context.Background()
	if err := h.cache.InvalidateProgress(ctx, recomputed.PlanProgramIDs...); err != nil {
		h.log.Warn("failed to invalidate progress cache",
			logger.PlanID(recomputed.PlanID),
			logger.Err(err),
		)
		return err
	}

	h.log.Debug("progress cache invalidated",
		logger.PlanID(recomputed.PlanID),
		logger.Int("link_count", len(recomputed.PlanProgramIDs)),
	)
	return nil
}
