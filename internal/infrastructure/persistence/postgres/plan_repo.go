package postgres

import (
	"context"
	"fmt"

	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PLAN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// PlanRepository implements plan.Repository for PostgreSQL.
type PlanRepository struct {
	conn *Connection
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(conn *Connection) *PlanRepository {
	return &PlanRepository{conn: conn}
}

// GetByID returns the plan.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*plan.Plan, error) {
	query := `
		SELECT id, student_id, academic_year_id, name, created_at, updated_at
		FROM plans
		WHERE id = $1
	`

	var p plan.Plan
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.StudentID,
		&p.AcademicYearID,
		&p.Name,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPlanNotFound
		}
		return nil, shared.WrapError("plan", "GetByID", shared.ErrStoreUnavailable, "query failed", err)
	}
	return &p, nil
}

// GetPlannedCourses returns the plan's courses in plan order. The ordering
// is part of the assignment contract.
func (r *PlanRepository) GetPlannedCourses(ctx context.Context, planID string) ([]plan.PlannedCourse, error) {
	query := `
		SELECT id, plan_id, semester, position, course_id, class_id, credits
		FROM planned_courses
		WHERE plan_id = $1
		ORDER BY semester, position
	`

	rows, err := r.conn.Query(ctx, query, planID)
	if err != nil {
		return nil, shared.WrapError("plan", "GetPlannedCourses", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	var courses []plan.PlannedCourse
	for rows.Next() {
		var pc plan.PlannedCourse
		if err := rows.Scan(&pc.ID, &pc.PlanID, &pc.Semester, &pc.Position, &pc.CourseID, &pc.ClassID, &pc.Credits); err != nil {
			return nil, fmt.Errorf("failed to scan planned course row: %w", err)
		}
		courses = append(courses, pc)
	}
	return courses, rows.Err()
}

// GetPlanPrograms returns the plan's program links.
func (r *PlanRepository) GetPlanPrograms(ctx context.Context, planID string) ([]plan.PlanProgram, error) {
	query := `
		SELECT id, plan_id, program_id, linked_at
		FROM plan_programs
		WHERE plan_id = $1
		ORDER BY linked_at
	`

	rows, err := r.conn.Query(ctx, query, planID)
	if err != nil {
		return nil, shared.WrapError("plan", "GetPlanPrograms", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	var links []plan.PlanProgram
	for rows.Next() {
		var link plan.PlanProgram
		if err := rows.Scan(&link.ID, &link.PlanID, &link.ProgramID, &link.LinkedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan program row: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// GetPlanProgram returns one link by id.
func (r *PlanRepository) GetPlanProgram(ctx context.Context, planProgramID string) (*plan.PlanProgram, error) {
	query := `
		SELECT id, plan_id, program_id, linked_at
		FROM plan_programs
		WHERE id = $1
	`

	var link plan.PlanProgram
	err := r.conn.QueryRow(ctx, query, planProgramID).Scan(&link.ID, &link.PlanID, &link.ProgramID, &link.LinkedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPlanProgramNotFound
		}
		return nil, shared.WrapError("plan", "GetPlanProgram", shared.ErrStoreUnavailable, "query failed", err)
	}
	return &link, nil
}
