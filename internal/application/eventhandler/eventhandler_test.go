package eventhandler

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvault/degree-audit/internal/application/command"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

type fakeRecomputer struct {
	planIDs []string
	err     error
}

func (f *fakeRecomputer) Handle(_ context.Context, cmd command.RecomputeFulfillmentsCommand) (*command.RecomputeFulfillmentsResult, error) {
	f.planIDs = append(f.planIDs, cmd.PlanID)
	if f.err != nil {
		return nil, f.err
	}
	return &command.RecomputeFulfillmentsResult{PlanID: cmd.PlanID, RecordCount: 1}, nil
}

type fakeInvalidator struct {
	yearIDs []string
	err     error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, academicYearID string) error {
	f.yearIDs = append(f.yearIDs, academicYearID)
	return f.err
}

func TestOnPlanCoursesChanged_TriggersRecompute(t *testing.T) {
	recomputer := &fakeRecomputer{}
	handler := NewOnPlanCoursesChanged(recomputer, quietLogger())

	err := handler.Handle(shared.NewPlanCoursesChangedEvent("plan-1", "pc-1", "added"))
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-1"}, recomputer.planIDs)
}

func TestOnPlanCoursesChanged_ConcurrentRecomputeIsNotAnError(t *testing.T) {
	recomputer := &fakeRecomputer{
		err: shared.WrapError("plan", "Recompute", shared.ErrConcurrentRecompute, "plan is already being recomputed", nil),
	}
	handler := NewOnPlanCoursesChanged(recomputer, quietLogger())

	err := handler.Handle(shared.NewPlanCoursesChangedEvent("plan-1", "pc-1", "moved"))
	assert.NoError(t, err, "a recompute in flight already covers the change")
}

func TestOnPlanCoursesChanged_RecomputeFailureSurfaces(t *testing.T) {
	recomputer := &fakeRecomputer{err: errors.New("store down")}
	handler := NewOnPlanCoursesChanged(recomputer, quietLogger())

	err := handler.Handle(shared.NewPlanCoursesChangedEvent("plan-1", "pc-1", "removed"))
	assert.Error(t, err)
}

func TestOnPlanCoursesChanged_IgnoresOtherEvents(t *testing.T) {
	recomputer := &fakeRecomputer{}
	handler := NewOnPlanCoursesChanged(recomputer, quietLogger())

	err := handler.Handle(shared.NewCatalogRefreshedEvent("ay-2026"))
	require.NoError(t, err)
	assert.Empty(t, recomputer.planIDs)
}

func TestOnCatalogRefreshed_InvalidatesYear(t *testing.T) {
	invalidator := &fakeInvalidator{}
	handler := NewOnCatalogRefreshed(invalidator, quietLogger())

	err := handler.Handle(shared.NewCatalogRefreshedEvent("ay-2026"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ay-2026"}, invalidator.yearIDs)
}

func TestOnCatalogRefreshed_EmptyYearIsIgnored(t *testing.T) {
	invalidator := &fakeInvalidator{}
	handler := NewOnCatalogRefreshed(invalidator, quietLogger())

	err := handler.Handle(shared.NewCatalogRefreshedEvent(""))
	require.NoError(t, err)
	assert.Empty(t, invalidator.yearIDs)
}

func TestOnCatalogRefreshed_InvalidationFailureSurfaces(t *testing.T) {
	invalidator := &fakeInvalidator{err: errors.New("redis down")}
	handler := NewOnCatalogRefreshed(invalidator, quietLogger())

	err := handler.Handle(shared.NewCatalogRefreshedEvent("ay-2026"))
	assert.Error(t, err)
}
