package eventhandler

import (
	"context"
	"errors"

	"github.com/planvault/degree-audit/internal/application/command"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON PLAN COURSES CHANGED
// Any change to a plan's course list makes its fulfillment set stale; react by
// rebuilding it. The recompute handler's re-entrancy guard absorbs bursts of
// change events for the same plan.
// ══════════════════════════════════════════════════════════════════════════════

// Recomputer rebuilds the fulfillment set of one plan. Satisfied by
// command.RecomputeFulfillmentsHandler.
type Recomputer interface {
	Handle(ctx context.Context, cmd command.RecomputeFulfillmentsCommand) (*command.RecomputeFulfillmentsResult, error)
}

// OnPlanCoursesChanged triggers a recompute when a plan's courses change.
type OnPlanCoursesChanged struct {
	recomputer Recomputer
	log        *logger.Logger
}

// NewOnPlanCoursesChanged creates the handler.
func NewOnPlanCoursesChanged(recomputer Recomputer, log *logger.Logger) *OnPlanCoursesChanged {
	if log == nil {
		log = logger.Default()
	}
	return &OnPlanCoursesChanged{recomputer: recomputer, log: log}
}

// Register subscribes the handler to the event bus.
func (h *OnPlanCoursesChanged) Register(bus shared.EventBus) error {
	return bus.Subscribe(shared.EventPlanCoursesChanged, h.Handle)
}

// Handle processes one plan change event.
func (h *OnPlanCoursesChanged) Handle(event shared.Event) error {
	changed, ok := event.(shared.PlanCoursesChangedEvent)
	if !ok {
		return nil
	}

	result, err := h.recomputer.Handle(context.Background(), command.RecomputeFulfillmentsCommand{
		PlanID: changed.PlanID,
	})
	if err != nil {
		if errors.Is(err, shared.ErrConcurrentRecompute) {
			h.log.Debug("recompute already running, change event dropped",
				logger.PlanID(changed.PlanID),
			)
			return nil
		}
		h.log.Warn("recompute after plan change failed",
			logger.PlanID(changed.PlanID),
			logger.Err(err),
		)
		return err
	}

	h.log.Debug("recomputed after plan change",
		logger.PlanID(changed.PlanID),
		logger.String("change", changed.Change),
		logger.Int("record_count", result.RecordCount),
	)
	return nil
}
