// Package plan contains the academic plan aggregate: the ordered planned
// courses, the program links audited against, and the fulfillment records the
// assigner produces.
package plan

import (
	"time"

	"github.com/google/uuid"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/pkg/academicterm"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PLAN
// ══════════════════════════════════════════════════════════════════════════════

// Plan is one student's course plan.
type Plan struct {
	ID             string
	StudentID      string
	AcademicYearID string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PlannedCourse is one slot in a plan. Exactly one of CourseID or ClassID is
// normally set; when both are set the semester-specific class offering wins
// during resolution.
type PlannedCourse struct {
	ID       string
	PlanID   string
	Semester int
	Position int

	// CourseID references the generic catalog course, if any.
	CourseID *string

	// ClassID references a semester-specific class offering, if any.
	ClassID *string

	// Credits pins the applied credit value for variable-credit courses.
	// When nil the course's own minimum credit value applies.
	Credits *float64
}

// SemesterLabel renders the slot's semester ordinal for logs and output,
// e.g. "Year 2 Fall".
func (pc PlannedCourse) SemesterLabel() string {
	return academicterm.SemesterLabel(pc.Semester)
}

// PlanProgram links a plan to one degree program for auditing.
type PlanProgram struct {
	ID        string
	PlanID    string
	ProgramID string
	LinkedAt  time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FULFILLMENT RECORD
// Created only by the assigner; the whole set for a plan's program links is
// cleared and rebuilt on every recompute.
// ══════════════════════════════════════════════════════════════════════════════

// Fulfillment associates one planned course with one requirement of one
// linked program.
type Fulfillment struct {
	ID              uuid.UUID
	PlanProgramID   string
	RequirementKey  string // "sectionId.requirementId"
	PlannedCourseID string
	CreditsApplied  float64
	CreatedAt       time.Time
}

// NewFulfillment builds a fulfillment record for one committed assignment.
func NewFulfillment(planProgramID string, key program.RequirementKey, plannedCourseID string, credits float64) Fulfillment {
	return Fulfillment{
		ID:              uuid.New(),
		PlanProgramID:   planProgramID,
		RequirementKey:  key.String(),
		PlannedCourseID: plannedCourseID,
		CreditsApplied:  credits,
		CreatedAt:       time.Now().UTC(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOLUTION
// ══════════════════════════════════════════════════════════════════════════════

// AppliedCredits returns the credit value a resolved planned course
// contributes: the pinned value when present, otherwise the course's own.
func (pc PlannedCourse) AppliedCredits(course *catalog.Course) float64 {
	if pc.Credits != nil {
		return *pc.Credits
	}
	if course != nil {
		return course.Credits()
	}
	return 0
}
