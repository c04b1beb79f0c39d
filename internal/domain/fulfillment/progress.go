package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS CALCULATOR
// Read-side rollup over persisted (or synthetic) fulfillments. Never mutates
// them. Requirement progress feeds section progress feeds program progress.
// ══════════════════════════════════════════════════════════════════════════════

// Status describes how far along a requirement, section, or program is.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func statusOf(applied, required float64) Status {
	switch {
	case applied <= 0:
		return StatusNotStarted
	case applied >= required:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

func percentageOf(applied, required float64) float64 {
	if required <= 0 {
		return 100
	}
	return applied / required * 100
}

// RequirementProgress is the rollup for one requirement.
type RequirementProgress struct {
	SectionID       string   `json:"sectionId"`
	RequirementID   string   `json:"requirementId"`
	Title           string   `json:"title"`
	CreditsRequired float64  `json:"creditsRequired"`
	CreditsApplied  float64  `json:"creditsApplied"`
	Status          Status   `json:"status"`
	Percentage      float64  `json:"percentage"`
	CourseIDs       []string `json:"courseIds,omitempty"`

	// EligibleCourses counts catalog courses matching the requirement's
	// filter, independent of what is planned. Zero for non-filter rules.
	EligibleCourses int `json:"eligibleCourses,omitempty"`

	// Violations lists constraint checks the current fulfillment set fails.
	Violations []string `json:"violations,omitempty"`
}

// SectionProgress is the rollup for one section.
type SectionProgress struct {
	SectionID       string                `json:"sectionId"`
	Title           string                `json:"title"`
	CreditsRequired float64               `json:"creditsRequired"`
	CreditsApplied  float64               `json:"creditsApplied"`
	Status          Status                `json:"status"`
	Percentage      float64               `json:"percentage"`
	Requirements    []RequirementProgress `json:"requirements"`

	// Violations lists section-level constraint checks the fulfillment set
	// fails, plus notes for constraint types the engine cannot validate.
	Violations []string `json:"violations,omitempty"`
}

// ProgramProgress is the rollup for one program.
type ProgramProgress struct {
	ProgramID       string            `json:"programId"`
	ProgramName     string            `json:"programName"`
	CreditsRequired float64           `json:"creditsRequired"`
	CreditsApplied  float64           `json:"creditsApplied"`
	Status          Status            `json:"status"`
	Percentage      float64           `json:"percentage"`
	Sections        []SectionProgress `json:"sections"`

	// Violations lists program-level constraint checks the fulfillment set
	// fails, plus notes for constraint types the engine cannot validate.
	Violations []string `json:"violations,omitempty"`
}

// CourseSource supplies the catalog course set matching a filter. Satisfied
// by catalog.QueryPlanner and its caching decorators.
type CourseSource interface {
	CoursesByFilter(ctx context.Context, filter catalog.CourseFilter, academicYearID string) ([]*catalog.Course, error)
}

// Calculator computes progress rollups.
type Calculator struct {
	courses CourseSource
	log     *logger.Logger
}

// NewCalculator builds a calculator.
func NewCalculator(courses CourseSource, log *logger.Logger) *Calculator {
	if log == nil {
		log = logger.Default()
	}
	return &Calculator{courses: courses, log: log}
}

// ProgramProgress aggregates one program's progress from the fulfillments of
// its plan link. courseByPlannedID resolves planned-course ids to catalog
// records for constraint validation; entries may be missing. Section rollups
// run concurrently since they have no ordering dependency; a catalog outage
// fails the whole computation because filter-rule progress needs the eligible
// course set.
func (c *Calculator) ProgramProgress(
	ctx context.Context,
	prog *program.Program,
	academicYearID string,
	fulfillments []plan.Fulfillment,
	courseByPlannedID map[string]*catalog.Course,
) (*ProgramProgress, error) {
	byKey := make(map[string][]plan.Fulfillment)
	for _, f := range fulfillments {
		byKey[f.RequirementKey] = append(byKey[f.RequirementKey], f)
	}

	sections := make([]SectionProgress, len(prog.Requirements.Sections))
	g, gctx := errgroup.WithContext(ctx)

	for i := range prog.Requirements.Sections {
		i := i
		section := prog.Requirements.Sections[i]
		if !section.WellFormed() {
			c.log.Warn("skipping malformed section in progress rollup",
				logger.ProgramID(prog.ID),
				logger.String("section_title", section.Title),
			)
			continue
		}
		g.Go(func() error {
			sp, err := c.sectionProgress(gctx, section, academicYearID, byKey, courseByPlannedID)
			if err != nil {
				return err
			}
			sections[i] = sp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ProgramProgress{
		ProgramID:       prog.ID,
		ProgramName:     prog.Name,
		CreditsRequired: prog.Requirements.TotalCreditsRequired(),
	}
	for _, sp := range sections {
		if sp.SectionID == "" {
			continue // malformed section slot
		}
		out.Sections = append(out.Sections, sp)
		out.CreditsApplied += sp.CreditsApplied
	}
	out.Status = statusOf(out.CreditsApplied, out.CreditsRequired)
	out.Percentage = percentageOf(out.CreditsApplied, out.CreditsRequired)
	if len(prog.Requirements.Constraints) > 0 {
		out.Violations = validateConstraints(prog.Requirements.Constraints, fulfillments, courseByPlannedID)
	}
	return out, nil
}

func (c *Calculator) sectionProgress(
	ctx context.Context,
	section program.Section,
	academicYearID string,
	byKey map[string][]plan.Fulfillment,
	courseByPlannedID map[string]*catalog.Course,
) (SectionProgress, error) {
	sp := SectionProgress{
		SectionID:       section.ID,
		Title:           section.Title,
		CreditsRequired: section.CreditsRequired,
	}

	var sectionRecords []plan.Fulfillment
	for _, req := range section.Requirements {
		if !req.WellFormed() {
			c.log.Warn("skipping malformed requirement in progress rollup",
				logger.String("section_id", section.ID),
				logger.String("requirement_title", req.Title),
			)
			continue
		}
		rp, err := c.requirementProgress(ctx, section.ID, req, academicYearID, byKey, courseByPlannedID)
		if err != nil {
			return SectionProgress{}, err
		}
		sp.Requirements = append(sp.Requirements, rp)
		sp.CreditsApplied += rp.CreditsApplied
		sectionRecords = append(sectionRecords, byKey[program.Key(section.ID, req.ID).String()]...)
	}

	sp.Status = statusOf(sp.CreditsApplied, sp.CreditsRequired)
	sp.Percentage = percentageOf(sp.CreditsApplied, sp.CreditsRequired)
	if len(section.Constraints) > 0 {
		sp.Violations = validateConstraints(section.Constraints, sectionRecords, courseByPlannedID)
	}
	return sp, nil
}

func (c *Calculator) requirementProgress(
	ctx context.Context,
	sectionID string,
	req program.Requirement,
	academicYearID string,
	byKey map[string][]plan.Fulfillment,
	courseByPlannedID map[string]*catalog.Course,
) (RequirementProgress, error) {
	key := program.Key(sectionID, req.ID)
	records := byKey[key.String()]

	rp := RequirementProgress{
		SectionID:       sectionID,
		RequirementID:   req.ID,
		Title:           req.Title,
		CreditsRequired: req.CreditsRequired,
	}
	for _, f := range records {
		rp.CreditsApplied += f.CreditsApplied
		rp.CourseIDs = append(rp.CourseIDs, f.PlannedCourseID)
	}
	rp.Status = statusOf(rp.CreditsApplied, rp.CreditsRequired)
	rp.Percentage = percentageOf(rp.CreditsApplied, rp.CreditsRequired)

	if req.Rule.IsFilterRule() {
		eligible, err := c.courses.CoursesByFilter(ctx, req.Rule.Filter, academicYearID)
		if err != nil {
			return RequirementProgress{}, fmt.Errorf("eligible courses for %s: %w", key, err)
		}
		rp.EligibleCourses = len(eligible)
	}

	if len(req.Constraints) > 0 {
		rp.Violations = validateConstraints(req.Constraints, records, courseByPlannedID)
	}
	return rp, nil
}

// validateConstraints re-checks declared constraints against the recorded
// fulfillments of one requirement, section, or program. The assigner already
// enforces requirement constraints during assignment; this surfaces violations
// present in data written by older runs or by hand, and notes constraint types
// the engine cannot validate. Courses are counted once per scope even when a
// double-counted course appears in several records.
func validateConstraints(constraints []program.Constraint, records []plan.Fulfillment, courseByPlannedID map[string]*catalog.Course) []string {
	var violations []string
	for _, c := range constraints {
		switch c.Type {
		case program.ConstraintMaxCourses:
			var params struct {
				Max int `json:"max"`
			}
			if err := json.Unmarshal(c.Params, &params); err != nil || params.Max <= 0 {
				continue
			}
			if n := distinctCourseCount(records); n > params.Max {
				violations = append(violations, fmt.Sprintf("max_courses: %d assigned, %d allowed", n, params.Max))
			}
		case program.ConstraintDistinctSubjects:
			seen := make(map[string]bool)
			counted := make(map[string]bool)
			for _, f := range records {
				if counted[f.PlannedCourseID] {
					continue
				}
				counted[f.PlannedCourseID] = true
				course := courseByPlannedID[f.PlannedCourseID]
				if course == nil {
					continue
				}
				if seen[course.SubjectCode] {
					violations = append(violations, fmt.Sprintf("distinct_subjects: subject %s appears more than once", course.SubjectCode))
					break
				}
				seen[course.SubjectCode] = true
			}
		case program.ConstraintAfterRequirement, program.ConstraintDoubleCount, program.ConstraintSharedCredit:
			// Interpreted at assignment time; nothing to re-check here.
		default:
			violations = append(violations, fmt.Sprintf("unknown constraint type %q not validated", c.Type))
		}
	}
	return violations
}

func distinctCourseCount(records []plan.Fulfillment) int {
	seen := make(map[string]bool)
	for _, f := range records {
		seen[f.PlannedCourseID] = true
	}
	return len(seen)
}
