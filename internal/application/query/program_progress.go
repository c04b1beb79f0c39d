// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRAM PROGRESS QUERY
// Read-only rollup of one linked program's progress from its persisted
// fulfillments. Results are cached until the next recompute invalidates them.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressCache stores computed progress rollups keyed by program link.
// A miss returns (nil, nil).
type ProgressCache interface {
	GetProgress(ctx context.Context, planProgramID string) (*fulfillment.ProgramProgress, error)
	SetProgress(ctx context.Context, planProgramID string, progress *fulfillment.ProgramProgress) error
	InvalidateProgress(ctx context.Context, planProgramIDs ...string) error
}

// ProgramProgressQuery identifies the program link to roll up.
type ProgramProgressQuery struct {
	// PlanProgramID is the plan-to-program link.
	PlanProgramID string

	// SkipCache forces a fresh computation.
	SkipCache bool
}

// Validate validates the query.
func (q ProgramProgressQuery) Validate() error {
	if q.PlanProgramID == "" {
		return errors.New("program_progress: plan_program_id is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// ProgramProgressHandler handles the ProgramProgressQuery.
type ProgramProgressHandler struct {
	plans        plan.Repository
	loader       *plan.SnapshotLoader
	fulfillments plan.FulfillmentRepository
	calculator   *fulfillment.Calculator
	cache        ProgressCache
	log          *logger.Logger
}

// NewProgramProgressHandler creates a new ProgramProgressHandler.
func NewProgramProgressHandler(
	plans plan.Repository,
	loader *plan.SnapshotLoader,
	fulfillments plan.FulfillmentRepository,
	calculator *fulfillment.Calculator,
	cache ProgressCache,
	log *logger.Logger,
) *ProgramProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ProgramProgressHandler{
		plans:        plans,
		loader:       loader,
		fulfillments: fulfillments,
		calculator:   calculator,
		cache:        cache,
		log:          log,
	}
}

// Handle executes the program progress query.
func (h *ProgramProgressHandler) Handle(ctx context.Context, q ProgramProgressQuery) (*fulfillment.ProgramProgress, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil && !q.SkipCache {
		cached, err := h.cache.GetProgress(ctx, q.PlanProgramID)
		if err != nil {
			h.log.Warn("progress cache read failed", logger.Err(err), logger.PlanProgramID(q.PlanProgramID))
		} else if cached != nil {
			return cached, nil
		}
	}

	link, err := h.plans.GetPlanProgram(ctx, q.PlanProgramID)
	if err != nil {
		return nil, err
	}

	snap, err := h.loader.Load(ctx, link.PlanID)
	if err != nil {
		return nil, err
	}

	var target *plan.ProgramSnapshot
	for i := range snap.Programs {
		if snap.Programs[i].PlanProgram.ID == q.PlanProgramID {
			target = &snap.Programs[i]
			break
		}
	}
	if target == nil {
		return nil, shared.ErrPlanProgramNotFound
	}

	records, err := h.fulfillments.GetByPlanProgramID(ctx, q.PlanProgramID)
	if err != nil {
		return nil, err
	}

	progress, err := h.calculator.ProgramProgress(
		ctx,
		target.Program,
		snap.Plan.AcademicYearID,
		records,
		courseIndex(snap),
	)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetProgress(ctx, q.PlanProgramID, progress); err != nil {
			h.log.Warn("progress cache write failed", logger.Err(err), logger.PlanProgramID(q.PlanProgramID))
		}
	}
	return progress, nil
}

// courseIndex maps planned-course ids to their resolved catalog records.
func courseIndex(snap *plan.Snapshot) map[string]*catalog.Course {
	index := make(map[string]*catalog.Course, len(snap.Courses))
	for _, view := range snap.Courses {
		if view.Resolved() {
			index[view.PlannedCourse.ID] = view.Course
		}
	}
	return index
}
