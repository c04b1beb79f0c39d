// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE FULFILLMENTS COMMAND
// The single write entry point of the audit engine, invoked after any course
// or program-link mutation. Clears the plan's entire fulfillment set and
// rebuilds it from scratch; there is no incremental mode.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeFulfillmentsCommand identifies the plan to recompute.
type RecomputeFulfillmentsCommand struct {
	// PlanID is the plan whose fulfillments are rebuilt.
	PlanID string

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecomputeFulfillmentsCommand) Validate() error {
	if c.PlanID == "" {
		return errors.New("recompute_fulfillments: plan_id is required")
	}
	return nil
}

// RecomputeFulfillmentsResult describes a completed recompute.
type RecomputeFulfillmentsResult struct {
	// PlanID echoes the recomputed plan.
	PlanID string

	// PlanProgramIDs lists the program links whose fulfillments were rebuilt.
	PlanProgramIDs []string

	// RecordCount is the size of the new fulfillment set.
	RecordCount int

	// Duration is the wall time of the run.
	Duration time.Duration
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeFulfillmentsHandler handles the RecomputeFulfillmentsCommand.
// Runs are serialized per plan: a second recompute for a plan already being
// processed is rejected with shared.ErrConcurrentRecompute rather than queued,
// since the caller retriggers on every mutation anyway.
type RecomputeFulfillmentsHandler struct {
	loader       *plan.SnapshotLoader
	fulfillments plan.FulfillmentRepository
	assigner     *fulfillment.Assigner
	eventBus     shared.EventBus
	log          *logger.Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewRecomputeFulfillmentsHandler creates a new RecomputeFulfillmentsHandler.
func NewRecomputeFulfillmentsHandler(
	loader *plan.SnapshotLoader,
	fulfillments plan.FulfillmentRepository,
	assigner *fulfillment.Assigner,
	eventBus shared.EventBus,
	log *logger.Logger,
) *RecomputeFulfillmentsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecomputeFulfillmentsHandler{
		loader:       loader,
		fulfillments: fulfillments,
		assigner:     assigner,
		eventBus:     eventBus,
		log:          log,
		running:      make(map[string]bool),
	}
}

// Handle executes the recompute command.
func (h *RecomputeFulfillmentsHandler) Handle(ctx context.Context, cmd RecomputeFulfillmentsCommand) (*RecomputeFulfillmentsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if !h.acquire(cmd.PlanID) {
		return nil, shared.WrapError("plan", "Recompute", shared.ErrConcurrentRecompute,
			"plan is already being recomputed", nil)
	}
	defer h.release(cmd.PlanID)

	started := time.Now()
	log := h.log.With(logger.PlanID(cmd.PlanID), logger.Operation("recompute_fulfillments"))

	snap, err := h.loader.Load(ctx, cmd.PlanID)
	if err != nil {
		log.Error("failed to load plan snapshot", logger.Err(err))
		return nil, err
	}

	records := h.assigner.Run(snap)
	linkIDs := snap.PlanProgramIDs()

	// Clear-then-rebuild happens in one transaction; a mid-run failure keeps
	// the previous fulfillment set intact.
	if err := h.fulfillments.ReplaceForPlanPrograms(ctx, linkIDs, records); err != nil {
		log.Error("failed to persist fulfillment set", logger.Err(err))
		return nil, err
	}

	if h.eventBus != nil {
		event := shared.NewFulfillmentsRecomputedEvent(cmd.PlanID, linkIDs, len(records))
		if err := h.eventBus.Publish(event); err != nil {
			log.Warn("failed to publish recompute event", logger.Err(err))
		}
	}

	duration := time.Since(started)
	log.Info("fulfillments recomputed",
		logger.Int("record_count", len(records)),
		logger.Int("program_count", len(linkIDs)),
		logger.Latency(duration),
	)

	return &RecomputeFulfillmentsResult{
		PlanID:         cmd.PlanID,
		PlanProgramIDs: linkIDs,
		RecordCount:    len(records),
		Duration:       duration,
	}, nil
}

func (h *RecomputeFulfillmentsHandler) acquire(planID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running[planID] {
		return false
	}
	h.running[planID] = true
	return true
}

func (h *RecomputeFulfillmentsHandler) release(planID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.running, planID)
}
