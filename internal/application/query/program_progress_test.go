package query

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/fulfillment"
	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakePlanRepo struct {
	plan    *plan.Plan
	courses []plan.PlannedCourse
	links   []plan.PlanProgram
}

func (r *fakePlanRepo) GetByID(_ context.Context, id string) (*plan.Plan, error) {
	if r.plan == nil || r.plan.ID != id {
		return nil, shared.ErrPlanNotFound
	}
	return r.plan, nil
}

func (r *fakePlanRepo) GetPlannedCourses(context.Context, string) ([]plan.PlannedCourse, error) {
	return r.courses, nil
}

func (r *fakePlanRepo) GetPlanPrograms(context.Context, string) ([]plan.PlanProgram, error) {
	return r.links, nil
}

func (r *fakePlanRepo) GetPlanProgram(_ context.Context, id string) (*plan.PlanProgram, error) {
	for i := range r.links {
		if r.links[i].ID == id {
			return &r.links[i], nil
		}
	}
	return nil, shared.ErrPlanProgramNotFound
}

type fakeProgramRepo struct {
	programs map[string]*program.Program
}

func (r *fakeProgramRepo) GetByID(_ context.Context, id string) (*program.Program, error) {
	if p, ok := r.programs[id]; ok {
		return p, nil
	}
	return nil, shared.ErrProgramNotFound
}

func (r *fakeProgramRepo) GetByIDs(_ context.Context, ids []string) ([]*program.Program, error) {
	var out []*program.Program
	for _, id := range ids {
		if p, ok := r.programs[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCatalogRepo struct {
	courses map[string]*catalog.Course
}

func (r *fakeCatalogRepo) GetByAcademicYear(context.Context, string) ([]*catalog.Course, error) {
	var out []*catalog.Course
	for _, c := range r.courses {
		out = append(out, c)
	}
	catalog.SortCourses(out)
	return out, nil
}

func (r *fakeCatalogRepo) GetByIDs(context.Context, string, []string) ([]*catalog.Course, error) {
	return nil, nil
}

func (r *fakeCatalogRepo) GetBySubjects(context.Context, string, []string) ([]*catalog.Course, error) {
	return nil, nil
}

func (r *fakeCatalogRepo) GetBySuffixes(context.Context, string, []string, []string) ([]*catalog.Course, error) {
	return nil, nil
}

func (r *fakeCatalogRepo) GetByID(_ context.Context, id string) (*catalog.Course, error) {
	if c, ok := r.courses[id]; ok {
		return c, nil
	}
	return nil, shared.ErrCourseNotFound
}

func (r *fakeCatalogRepo) GetClassCourse(context.Context, string) (*catalog.Course, error) {
	return nil, shared.ErrClassNotFound
}

type fakeFulfillmentRepo struct {
	byLink map[string][]plan.Fulfillment
}

func (r *fakeFulfillmentRepo) GetByPlanProgramID(_ context.Context, id string) ([]plan.Fulfillment, error) {
	return r.byLink[id], nil
}

func (r *fakeFulfillmentRepo) ReplaceForPlanPrograms(context.Context, []string, []plan.Fulfillment) error {
	return nil
}

type fakeProgressCache struct {
	entries map[string]*fulfillment.ProgramProgress
	sets    int
}

func (c *fakeProgressCache) GetProgress(_ context.Context, id string) (*fulfillment.ProgramProgress, error) {
	return c.entries[id], nil
}

func (c *fakeProgressCache) SetProgress(_ context.Context, id string, p *fulfillment.ProgramProgress) error {
	if c.entries == nil {
		c.entries = make(map[string]*fulfillment.ProgramProgress)
	}
	c.entries[id] = p
	c.sets++
	return nil
}

func (c *fakeProgressCache) InvalidateProgress(_ context.Context, ids ...string) error {
	for _, id := range ids {
		delete(c.entries, id)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

type progressFixture struct {
	handler *ProgramProgressHandler
	preview *PreviewProgressHandler
	cache   *fakeProgressCache
	fulfs   *fakeFulfillmentRepo
}

func newProgressFixture() *progressFixture {
	courseID := "CS-1101"
	prog := &program.Program{
		ID:   "cs-minor",
		Name: "Computer Science Minor",
		Requirements: program.Requirements{Sections: []program.Section{{
			ID: "core", Title: "Core", CreditsRequired: 6,
			Requirements: []program.Requirement{
				{
					ID: "intro", CreditsRequired: 3,
					Rule: program.Rule{
						Kind:   program.RuleTakeAnyCourses,
						Filter: &catalog.SubjectNumberFilter{Subjects: []string{"CS"}},
					},
				},
				{
					ID: "advanced", CreditsRequired: 3,
					Rule: program.Rule{
						Kind: program.RuleTakeAnyCourses,
						Filter: &catalog.SubjectNumberFilter{
							Subjects: []string{"CS"},
							Numbers:  []catalog.NumberConstraint{{Type: catalog.NumberRange, Min: 3000}},
						},
					},
				},
			},
		}}},
	}

	planRepo := &fakePlanRepo{
		plan: &plan.Plan{ID: "plan-1", AcademicYearID: "ay-2026"},
		courses: []plan.PlannedCourse{
			{ID: "pc-1", PlanID: "plan-1", Semester: 1, Position: 0, CourseID: &courseID},
		},
		links: []plan.PlanProgram{
			{ID: "link-1", PlanID: "plan-1", ProgramID: "cs-minor"},
		},
	}
	programRepo := &fakeProgramRepo{programs: map[string]*program.Program{"cs-minor": prog}}
	catalogRepo := &fakeCatalogRepo{courses: map[string]*catalog.Course{
		"CS-1101": {ID: "CS-1101", SubjectCode: "CS", CourseNumber: "1101", MinCredits: 3, MaxCredits: 3, AcademicYearID: "ay-2026"},
		"CS-3250": {ID: "CS-3250", SubjectCode: "CS", CourseNumber: "3250", MinCredits: 3, MaxCredits: 3, AcademicYearID: "ay-2026"},
	}}

	loader := plan.NewSnapshotLoader(planRepo, programRepo, catalogRepo)
	calculator := fulfillment.NewCalculator(catalog.NewQueryPlanner(catalogRepo), quietLogger())
	fulfs := &fakeFulfillmentRepo{byLink: map[string][]plan.Fulfillment{
		"link-1": {plan.NewFulfillment("link-1", program.Key("core", "intro"), "pc-1", 3)},
	}}
	cache := &fakeProgressCache{}

	return &progressFixture{
		handler: NewProgramProgressHandler(planRepo, loader, fulfs, calculator, cache, quietLogger()),
		preview: NewPreviewProgressHandler(loader, fulfillment.NewAssigner(quietLogger()), calculator, quietLogger()),
		cache:   cache,
		fulfs:   fulfs,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestProgramProgress_RollsUpPersistedFulfillments(t *testing.T) {
	fx := newProgressFixture()

	progress, err := fx.handler.Handle(context.Background(), ProgramProgressQuery{PlanProgramID: "link-1"})
	require.NoError(t, err)

	assert.Equal(t, "cs-minor", progress.ProgramID)
	assert.Equal(t, 6.0, progress.CreditsRequired)
	assert.Equal(t, 3.0, progress.CreditsApplied)
	assert.Equal(t, fulfillment.StatusInProgress, progress.Status)
	assert.InDelta(t, 50.0, progress.Percentage, 0.001)

	require.Len(t, progress.Sections, 1)
	reqs := progress.Sections[0].Requirements
	require.Len(t, reqs, 2)
	assert.Equal(t, fulfillment.StatusCompleted, reqs[0].Status)
	assert.Equal(t, fulfillment.StatusNotStarted, reqs[1].Status)
}

func TestProgramProgress_Validation(t *testing.T) {
	fx := newProgressFixture()
	_, err := fx.handler.Handle(context.Background(), ProgramProgressQuery{})
	assert.Error(t, err)
}

func TestProgramProgress_UnknownLink(t *testing.T) {
	fx := newProgressFixture()
	_, err := fx.handler.Handle(context.Background(), ProgramProgressQuery{PlanProgramID: "missing"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProgramProgress_CacheHitSkipsComputation(t *testing.T) {
	fx := newProgressFixture()

	cached := &fulfillment.ProgramProgress{ProgramID: "cached"}
	require.NoError(t, fx.cache.SetProgress(context.Background(), "link-1", cached))
	fx.cache.sets = 0

	progress, err := fx.handler.Handle(context.Background(), ProgramProgressQuery{PlanProgramID: "link-1"})
	require.NoError(t, err)
	assert.Equal(t, "cached", progress.ProgramID)
	assert.Zero(t, fx.cache.sets)
}

func TestProgramProgress_SkipCacheForcesRecompute(t *testing.T) {
	fx := newProgressFixture()

	cached := &fulfillment.ProgramProgress{ProgramID: "cached"}
	require.NoError(t, fx.cache.SetProgress(context.Background(), "link-1", cached))

	progress, err := fx.handler.Handle(context.Background(), ProgramProgressQuery{PlanProgramID: "link-1", SkipCache: true})
	require.NoError(t, err)
	assert.Equal(t, "cs-minor", progress.ProgramID)

	// Recomputed result replaces the stale entry.
	assert.Equal(t, progress, fx.cache.entries["link-1"])
}

func TestProgramProgress_PopulatesCache(t *testing.T) {
	fx := newProgressFixture()

	progress, err := fx.handler.Handle(context.Background(), ProgramProgressQuery{PlanProgramID: "link-1"})
	require.NoError(t, err)

	assert.Equal(t, 1, fx.cache.sets)
	assert.Equal(t, progress, fx.cache.entries["link-1"])
}

func TestPreviewProgress_UsesBestMatchWithoutPersisting(t *testing.T) {
	fx := newProgressFixture()

	progress, err := fx.preview.Handle(context.Background(), PreviewProgressQuery{
		PlanID:    "plan-1",
		ProgramID: "cs-minor",
	})
	require.NoError(t, err)

	// CS 1101 only matches the intro requirement; preview applies it there
	// without writing anything.
	assert.Equal(t, 3.0, progress.CreditsApplied)
	assert.Empty(t, fx.cache.entries)
}

func TestPreviewProgress_UnknownProgram(t *testing.T) {
	fx := newProgressFixture()
	_, err := fx.preview.Handle(context.Background(), PreviewProgressQuery{
		PlanID:    "plan-1",
		ProgramID: "missing",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPreviewProgress_Validation(t *testing.T) {
	fx := newProgressFixture()
	_, err := fx.preview.Handle(context.Background(), PreviewProgressQuery{PlanID: "plan-1"})
	assert.Error(t, err)
}
