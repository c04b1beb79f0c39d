package plan

import "context"

// Repository loads plans, their planned courses, and their program links.
type Repository interface {
	// GetByID returns the plan or shared.ErrPlanNotFound.
	GetByID(ctx context.Context, id string) (*Plan, error)

	// GetPlannedCourses returns the plan's courses ordered by semester
	// ascending, then position ascending. Order is part of the assignment
	// contract.
	GetPlannedCourses(ctx context.Context, planID string) ([]PlannedCourse, error)

	// GetPlanPrograms returns the plan's program links.
	GetPlanPrograms(ctx context.Context, planID string) ([]PlanProgram, error)

	// GetPlanProgram returns one link by id or shared.ErrPlanProgramNotFound.
	GetPlanProgram(ctx context.Context, planProgramID string) (*PlanProgram, error)
}

// FulfillmentRepository persists fulfillment records. ReplaceForPlanPrograms
// clears and rebuilds inside one transaction so a failed run never leaves a
// half-cleared set.
type FulfillmentRepository interface {
	// GetByPlanProgramID returns all fulfillments for one program link.
	GetByPlanProgramID(ctx context.Context, planProgramID string) ([]Fulfillment, error)

	// ReplaceForPlanPrograms atomically deletes every fulfillment belonging
	// to the given links and inserts the new set.
	ReplaceForPlanPrograms(ctx context.Context, planProgramIDs []string, records []Fulfillment) error
}
