package plan

import (
	"context"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// The assigner and the progress calculator are pure functions over a snapshot:
// the plan, its planned courses with resolved catalog records, and the linked
// programs with parsed requirement trees. All loading happens before the
// algorithm runs.
// ══════════════════════════════════════════════════════════════════════════════

// PlannedCourseView is a planned course with its resolved catalog record.
// Course is nil when the slot references a deleted or unknown course; such
// slots are skipped by the assigner.
type PlannedCourseView struct {
	PlannedCourse PlannedCourse
	Course        *catalog.Course
}

// Resolved reports whether the slot has a usable catalog record.
func (v PlannedCourseView) Resolved() bool {
	return v.Course != nil
}

// Credits returns the credit value the slot contributes.
func (v PlannedCourseView) Credits() float64 {
	return v.PlannedCourse.AppliedCredits(v.Course)
}

// ProgramSnapshot is one linked program ready for assignment.
type ProgramSnapshot struct {
	PlanProgram PlanProgram
	Program     *program.Program
}

// Snapshot is the complete read model of one plan for a recompute or
// progress run.
type Snapshot struct {
	Plan     *Plan
	Courses  []PlannedCourseView // plan order: semester asc, position asc
	Programs []ProgramSnapshot
}

// PlanProgramIDs lists the link ids covered by the snapshot.
func (s *Snapshot) PlanProgramIDs() []string {
	ids := make([]string, 0, len(s.Programs))
	for _, p := range s.Programs {
		ids = append(ids, p.PlanProgram.ID)
	}
	return ids
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT LOADER
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotLoader assembles snapshots from the plan, program, and catalog
// repositories.
type SnapshotLoader struct {
	plans    Repository
	programs program.Repository
	catalog  catalog.Repository
}

// NewSnapshotLoader wires a loader.
func NewSnapshotLoader(plans Repository, programs program.Repository, cat catalog.Repository) *SnapshotLoader {
	return &SnapshotLoader{plans: plans, programs: programs, catalog: cat}
}

// Load builds the full snapshot for a plan. A class offering takes precedence
// over the generic catalog course when a slot references both.
func (l *SnapshotLoader) Load(ctx context.Context, planID string) (*Snapshot, error) {
	p, err := l.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	planned, err := l.plans.GetPlannedCourses(ctx, planID)
	if err != nil {
		return nil, err
	}

	views := make([]PlannedCourseView, 0, len(planned))
	for _, pc := range planned {
		view := PlannedCourseView{PlannedCourse: pc}
		course, err := l.resolveCourse(ctx, pc)
		if err != nil {
			return nil, err
		}
		view.Course = course
		views = append(views, view)
	}

	links, err := l.plans.GetPlanPrograms(ctx, planID)
	if err != nil {
		return nil, err
	}

	programIDs := make([]string, 0, len(links))
	for _, link := range links {
		programIDs = append(programIDs, link.ProgramID)
	}
	progs, err := l.programs.GetByIDs(ctx, programIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*program.Program, len(progs))
	for _, prog := range progs {
		byID[prog.ID] = prog
	}

	snapshots := make([]ProgramSnapshot, 0, len(links))
	for _, link := range links {
		prog, ok := byID[link.ProgramID]
		if !ok {
			return nil, shared.ErrProgramNotFound
		}
		snapshots = append(snapshots, ProgramSnapshot{PlanProgram: link, Program: prog})
	}

	return &Snapshot{Plan: p, Courses: views, Programs: snapshots}, nil
}

// LoadProgram builds a snapshot for one unlinked program, used by progress
// previews.
func (l *SnapshotLoader) LoadProgram(ctx context.Context, programID string) (*program.Program, error) {
	return l.programs.GetByID(ctx, programID)
}

func (l *SnapshotLoader) resolveCourse(ctx context.Context, pc PlannedCourse) (*catalog.Course, error) {
	if pc.ClassID != nil {
		course, err := l.catalog.GetClassCourse(ctx, *pc.ClassID)
		if err == nil {
			return course, nil
		}
		if !shared.IsNotFound(err) {
			return nil, err
		}
	}
	if pc.CourseID != nil {
		course, err := l.catalog.GetByID(ctx, *pc.CourseID)
		if err == nil {
			return course, nil
		}
		if !shared.IsNotFound(err) {
			return nil, err
		}
	}
	// Dangling slot: referenced course or class no longer exists.
	return nil, nil
}
