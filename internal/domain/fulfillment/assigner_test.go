package fulfillment

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func testCourse(subject, number string, credits float64) *catalog.Course {
	return &catalog.Course{
		ID:           subject + "-" + number,
		SubjectCode:  subject,
		CourseNumber: number,
		Name:         subject + " " + number,
		MinCredits:   credits,
		MaxCredits:   credits,
	}
}

func filterRule(f catalog.CourseFilter) program.Rule {
	return program.Rule{Kind: program.RuleTakeAnyCourses, Filter: f}
}

func subjectFilter(subjects ...string) catalog.CourseFilter {
	return &catalog.SubjectNumberFilter{Subjects: subjects}
}

func listFilter(ids ...string) catalog.CourseFilter {
	return &catalog.CourseListFilter{CourseIDs: ids}
}

func testProgram(id string, sections ...program.Section) *program.Program {
	return &program.Program{
		ID:           id,
		Name:         id,
		Requirements: program.Requirements{Sections: sections},
	}
}

func snapshot(programs []*program.Program, courses ...*catalog.Course) *plan.Snapshot {
	snap := &plan.Snapshot{Plan: &plan.Plan{ID: "plan-1", AcademicYearID: "ay-2026"}}
	for i, c := range courses {
		snap.Courses = append(snap.Courses, plan.PlannedCourseView{
			PlannedCourse: plan.PlannedCourse{
				ID:       "pc-" + c.ID,
				PlanID:   "plan-1",
				Semester: 1,
				Position: i,
				CourseID: &c.ID,
			},
			Course: c,
		})
	}
	for _, p := range programs {
		snap.Programs = append(snap.Programs, plan.ProgramSnapshot{
			PlanProgram: plan.PlanProgram{ID: "link-" + p.ID, PlanID: "plan-1", ProgramID: p.ID},
			Program:     p,
		})
	}
	return snap
}

func keysOf(records []plan.Fulfillment) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.RequirementKey)
	}
	return keys
}

func TestAssigner_AssignsMatchingCourse(t *testing.T) {
	prog := testProgram("cs-bs", program.Section{
		ID: "core",
		Requirements: []program.Requirement{
			{ID: "intro", CreditsRequired: 6, Rule: filterRule(&catalog.SubjectNumberFilter{
				Subjects: []string{"CS"},
				Numbers:  []catalog.NumberConstraint{{Type: catalog.NumberRange, Min: 1000, Max: intPtr(1999)}},
			})},
		},
	})

	snap := snapshot([]*program.Program{prog},
		testCourse("CS", "1101", 3),
		testCourse("MATH", "1101", 3),
	)

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 1)
	assert.Equal(t, "core.intro", records[0].RequirementKey)
	assert.Equal(t, "pc-CS-1101", records[0].PlannedCourseID)
	assert.Equal(t, 3.0, records[0].CreditsApplied)
	assert.Equal(t, "link-cs-bs", records[0].PlanProgramID)
}

func TestAssigner_UnfilledBeatsSpecificity(t *testing.T) {
	// R2 is more specific but already full after the first course; the second
	// course must land on the less specific, still unfilled R1.
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r1", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
			{ID: "r2", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101", "CS-2201"))},
		},
	})

	snap := snapshot([]*program.Program{prog},
		testCourse("CS", "1101", 3),
		testCourse("CS", "2201", 3),
	)

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 2)
	assert.Equal(t, "s.r2", records[0].RequirementKey, "first course takes the more specific requirement")
	assert.Equal(t, "pc-CS-1101", records[0].PlannedCourseID)
	assert.Equal(t, "s.r1", records[1].RequirementKey, "second course fills the unfilled one despite lower specificity")
	assert.Equal(t, "pc-CS-2201", records[1].PlannedCourseID)
}

func TestAssigner_OverflowOnlyWhenExhausted(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r1", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
		},
	})

	snap := snapshot([]*program.Program{prog},
		testCourse("CS", "1101", 3),
		testCourse("CS", "2201", 3),
	)

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 2, "second course overflows because no alternative exists")
	assert.Equal(t, []string{"s.r1", "s.r1"}, keysOf(records))
}

func TestAssigner_NoOverflowWhileAlternativeUnfilled(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "narrow", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101", "CS-2201"))},
			{ID: "broad", CreditsRequired: 6, Rule: filterRule(subjectFilter("CS"))},
		},
	})

	snap := snapshot([]*program.Program{prog},
		testCourse("CS", "1101", 3),
		testCourse("CS", "2201", 3),
	)

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 2)
	assert.Equal(t, "s.narrow", records[0].RequirementKey)
	assert.Equal(t, "s.broad", records[1].RequirementKey,
		"full narrow requirement is skipped while broad stays unfilled")
}

func TestAssigner_DoubleCountDeniedByDefault(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "a", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
			{ID: "b", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101"))},
		},
	})

	snap := snapshot([]*program.Program{prog}, testCourse("CS", "1101", 3))

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 1, "course matches both but may fulfill only one")
	assert.Equal(t, "s.b", records[0].RequirementKey, "higher specificity wins the single slot")
}

func TestAssigner_DoubleCountAllowedByConstraint(t *testing.T) {
	params, _ := json.Marshal(map[string][]string{"with": {"s.b"}})
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "a", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS")),
				Constraints: []program.Constraint{{Type: program.ConstraintDoubleCount, Params: params}}},
			{ID: "b", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101"))},
		},
	})

	snap := snapshot([]*program.Program{prog}, testCourse("CS", "1101", 3))

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 2)
	assert.ElementsMatch(t, []string{"s.a", "s.b"}, keysOf(records))
}

func TestAssigner_NoDuplicateRequirementAssignment(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r", CreditsRequired: 12, Rule: filterRule(subjectFilter("CS", "MATH"))},
		},
	})

	snap := snapshot([]*program.Program{prog},
		testCourse("CS", "1101", 3),
		testCourse("MATH", "1300", 3),
		testCourse("CS", "2201", 3),
	)

	records := NewAssigner(quietLogger()).Run(snap)
	seen := make(map[string]bool)
	for _, r := range records {
		pair := r.PlannedCourseID + "|" + r.RequirementKey
		assert.False(t, seen[pair], "duplicate assignment %s", pair)
		seen[pair] = true
	}
}

func TestAssigner_CrossProgramIndependence(t *testing.T) {
	p1 := testProgram("p1", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
		},
	})
	p2 := testProgram("p2", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
		},
	})

	c := testCourse("CS", "1101", 3)

	both := NewAssigner(quietLogger()).Run(snapshot([]*program.Program{p1, p2}, c))
	alone := NewAssigner(quietLogger()).Run(snapshot([]*program.Program{p1}, c))

	var p1Both []plan.Fulfillment
	for _, r := range both {
		if r.PlanProgramID == "link-p1" {
			p1Both = append(p1Both, r)
		}
	}

	require.Len(t, both, 2, "the same course fulfills both programs independently")
	require.Len(t, alone, 1)
	assert.Equal(t, keysOf(alone), keysOf(p1Both))
	assert.Equal(t, alone[0].CreditsApplied, p1Both[0].CreditsApplied)
}

func TestAssigner_Idempotent(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r1", CreditsRequired: 6, Rule: filterRule(subjectFilter("CS"))},
			{ID: "r2", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101"))},
		},
	})
	snap := snapshot([]*program.Program{prog},
		testCourse("CS", "1101", 3),
		testCourse("CS", "2201", 3),
	)

	assigner := NewAssigner(quietLogger())
	first := assigner.Run(snap)
	second := assigner.Run(snap)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].RequirementKey, second[i].RequirementKey)
		assert.Equal(t, first[i].PlannedCourseID, second[i].PlannedCourseID)
		assert.Equal(t, first[i].CreditsApplied, second[i].CreditsApplied)
		assert.Equal(t, first[i].PlanProgramID, second[i].PlanProgramID)
	}
}

func TestAssigner_EmptyPlanYieldsNothing(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
		},
	})

	records := NewAssigner(quietLogger()).Run(snapshot([]*program.Program{prog}))
	assert.Empty(t, records)
}

func TestAssigner_SkipsUnresolvedCourses(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r", CreditsRequired: 3, Rule: filterRule(&catalog.AnyFilter{})},
		},
	})

	snap := snapshot([]*program.Program{prog})
	snap.Courses = append(snap.Courses, plan.PlannedCourseView{
		PlannedCourse: plan.PlannedCourse{ID: "pc-dangling", PlanID: "plan-1"},
	})

	records := NewAssigner(quietLogger()).Run(snap)
	assert.Empty(t, records)
}

func TestAssigner_PinnedCreditsApply(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "r", CreditsRequired: 6, Rule: filterRule(subjectFilter("MUS"))},
		},
	})

	variable := testCourse("MUS", "1100", 1)
	variable.MaxCredits = 4
	pinned := 4.0

	snap := snapshot([]*program.Program{prog}, variable)
	snap.Courses[0].PlannedCourse.Credits = &pinned

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 1)
	assert.Equal(t, 4.0, records[0].CreditsApplied)
}

func TestAssigner_DeferredRetryCommitsAfterGateOpens(t *testing.T) {
	// "late" is gated on "early" having an assignment. Both match the same
	// course; the primary pass defers "late", then the retry pass commits it
	// because "early" got its assignment and double counting is permitted.
	dcParams, _ := json.Marshal(map[string][]string{"with": {"s.early"}})
	afterParams, _ := json.Marshal(map[string]string{"requirement": "s.early"})

	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "late", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101")),
				Constraints: []program.Constraint{
					{Type: program.ConstraintAfterRequirement, Params: afterParams},
					{Type: program.ConstraintDoubleCount, Params: dcParams},
				}},
			{ID: "early", CreditsRequired: 3, Rule: filterRule(subjectFilter("CS"))},
		},
	})

	snap := snapshot([]*program.Program{prog}, testCourse("CS", "1101", 3))

	records := NewAssigner(quietLogger()).Run(snap)
	require.Len(t, records, 2)
	assert.ElementsMatch(t, []string{"s.early", "s.late"}, keysOf(records))
}

func TestPreviewAssign_HighestSpecificityOnly(t *testing.T) {
	prog := testProgram("p", program.Section{
		ID: "s",
		Requirements: []program.Requirement{
			{ID: "broad", CreditsRequired: 30, Rule: filterRule(subjectFilter("CS"))},
			{ID: "narrow", CreditsRequired: 3, Rule: filterRule(listFilter("CS-1101"))},
		},
	})

	snap := snapshot(nil, testCourse("CS", "1101", 3), testCourse("CS", "2201", 3))

	records := NewAssigner(quietLogger()).PreviewAssign(snap, prog)
	require.Len(t, records, 2)
	assert.Equal(t, "s.narrow", records[0].RequirementKey, "each course takes only its best match")
	assert.Equal(t, "s.broad", records[1].RequirementKey)
}

func intPtr(v int) *int { return &v }
