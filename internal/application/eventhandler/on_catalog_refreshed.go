package eventhandler

import (
	"context"

	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON CATALOG REFRESHED
// A catalog reload replaces the course set of an academic year; every cached
// filter result for that year is stale.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogInvalidator drops cached filter results for one academic year.
// Satisfied by redis.CatalogCache.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, academicYearID string) error
}

// OnCatalogRefreshed invalidates cached filter results after a catalog reload.
type OnCatalogRefreshed struct {
	cache CatalogInvalidator
	log   *logger.Logger
}

// NewOnCatalogRefreshed creates the handler.
func NewOnCatalogRefreshed(cache CatalogInvalidator, log *logger.Logger) *OnCatalogRefreshed {
	if log == nil {
		log = logger.Default()
	}
	return &OnCatalogRefreshed{cache: cache, log: log}
}

// Register subscribes the handler to the event bus.
func (h *OnCatalogRefreshed) Register(bus shared.EventBus) error {
	return bus.Subscribe(shared.EventCatalogRefreshed, h.Handle)
}

// Handle processes one catalog refresh event.
func (h *OnCatalogRefreshed) Handle(event shared.Event) error {
	refreshed, ok := event.(shared.CatalogRefreshedEvent)
	if !ok {
		return nil
	}
	if h.cache == nil || refreshed.AcademicYearID == "" {
		return nil
	}

	if err := h.cache.Invalidate(context.Background(), refreshed.AcademicYearID); err != nil {
		h.log.Warn("failed to invalidate catalog cache",
			logger.String("academic_year_id", refreshed.AcademicYearID),
			logger.Err(err),
		)
		return err
	}

	h.log.Debug("catalog cache invalidated",
		logger.String("academic_year_id", refreshed.AcademicYearID),
	)
	return nil
}
