package query

import (
	"context"
	"errors"

	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREVIEW PROGRESS QUERY
// "What if I added this program" - progress for a program NOT linked to the
// plan. Bypasses the assigner: each planned course contributes only its single
// highest-specificity match, with no double counting, overflow, or deferral.
// A cheap approximation, never persisted and never cached.
// ══════════════════════════════════════════════════════════════════════════════

// PreviewProgressQuery pairs a plan with a candidate program.
type PreviewProgressQuery struct {
	// PlanID is the plan to evaluate against.
	PlanID string

	// ProgramID is the candidate program, not (necessarily) linked.
	ProgramID string
}

// Validate validates the query.
func (q PreviewProgressQuery) Validate() error {
	if q.PlanID == "" {
		return errors.New("preview_progress: plan_id is required")
	}
	if q.ProgramID == "" {
		return errors.New("preview_progress: program_id is required")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// PreviewProgressHandler handles the PreviewProgressQuery.
type PreviewProgressHandler struct {
	loader     *plan.SnapshotLoader
	assigner   *fulfillment.Assigner
	calculator *fulfillment.Calculator
	log        *logger.Logger
}

// NewPreviewProgressHandler creates a new PreviewProgressHandler.
func NewPreviewProgressHandler(
	loader *plan.SnapshotLoader,
	assigner *fulfillment.Assigner,
	calculator *fulfillment.Calculator,
	log *logger.Logger,
) *PreviewProgressHandler {
	if log == nil {
		log = logger.Default()
	}
	return &PreviewProgressHandler{
		loader:     loader,
		assigner:   assigner,
		calculator: calculator,
		log:        log,
	}
}

// Handle executes the preview progress query.
func (h *PreviewProgressHandler) Handle(ctx context.Context, q PreviewProgressQuery) (*fulfillment.ProgramProgress, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	snap, err := h.loader.Load(ctx, q.PlanID)
	if err != nil {
		return nil, err
	}

	prog, err := h.loader.LoadProgram(ctx, q.ProgramID)
	if err != nil {
		return nil, err
	}

	synthetic := h.assigner.PreviewAssign(snap, prog)

	return h.calculator.ProgramProgress(
		ctx,
		prog,
		snap.Plan.AcademicYearID,
		synthetic,
		courseIndex(snap),
	)
}
