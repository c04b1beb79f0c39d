package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/shared"
	"github.com/planvault/degree-audit/pkg/circuitbreaker"
	"github.com/planvault/degree-audit/pkg/logger"
)

type scriptedSource struct {
	calls   int
	results []error
	courses []*catalog.Course
}

func (s *scriptedSource) CoursesByFilter(context.Context, catalog.CourseFilter, string) ([]*catalog.Course, error) {
	err := s.results[len(s.results)-1]
	if s.calls < len(s.results) {
		err = s.results[s.calls]
	}
	s.calls++
	if err != nil {
		return nil, err
	}
	return s.courses, nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func fastPolicy() GatewayPolicy {
	return GatewayPolicy{
		MaxRetries:         3,
		RetryBaseDelay:     1,
		RetryMaxDelay:      1,
		BreakerThreshold:   2,
		BreakerHalfOpenMax: 1,
	}
}

func subjectFilter() catalog.CourseFilter {
	return &catalog.SubjectNumberFilter{Subjects: []string{"CS"}}
}

func transient() error {
	return shared.WrapError("catalog", "Query", shared.ErrStoreUnavailable, "connection reset", errors.New("reset"))
}

func TestCatalogGateway_PassesThroughOnSuccess(t *testing.T) {
	want := []*catalog.Course{{ID: "CS-1101", SubjectCode: "CS", CourseNumber: "1101"}}
	src := &scriptedSource{results: []error{nil}, courses: want}
	gw := NewCatalogGatewayWithPolicy(src, fastPolicy(), quietLogger())

	got, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, src.calls)
}

func TestCatalogGateway_ZeroPolicyUsesPresets(t *testing.T) {
	want := []*catalog.Course{{ID: "CS-1101", SubjectCode: "CS", CourseNumber: "1101"}}
	src := &scriptedSource{results: []error{transient(), transient(), nil}, courses: want}
	gw := NewCatalogGateway(src, quietLogger())

	got, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, src.calls, "preset allows three attempts")
	assert.True(t, gw.Breaker().IsClosed(), "recovered call keeps the circuit closed")
}

func TestCatalogGateway_RetriesTransientErrors(t *testing.T) {
	want := []*catalog.Course{{ID: "CS-1101", SubjectCode: "CS", CourseNumber: "1101"}}
	src := &scriptedSource{results: []error{transient(), nil}, courses: want}
	gw := NewCatalogGatewayWithPolicy(src, fastPolicy(), quietLogger())

	got, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 2, src.calls)
}

func TestCatalogGateway_ExhaustedRetriesSurfaceAsOutage(t *testing.T) {
	src := &scriptedSource{results: []error{transient()}}
	gw := NewCatalogGatewayWithPolicy(src, fastPolicy(), quietLogger())

	_, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
	require.Error(t, err)
	assert.True(t, shared.IsCatalogUnavailable(err))
	assert.Equal(t, 3, src.calls)
}

func TestCatalogGateway_NonRetryableErrorsPassThrough(t *testing.T) {
	src := &scriptedSource{results: []error{shared.ErrCourseNotFound}}
	gw := NewCatalogGatewayWithPolicy(src, fastPolicy(), quietLogger())

	_, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.False(t, shared.IsCatalogUnavailable(err))
	assert.Equal(t, 1, src.calls)
}

func TestCatalogGateway_OpenCircuitShortCircuits(t *testing.T) {
	src := &scriptedSource{results: []error{transient()}}
	gw := NewCatalogGatewayWithPolicy(src, fastPolicy(), quietLogger())

	// Two failing calls trip the breaker (threshold 2).
	for i := 0; i < 2; i++ {
		_, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
		require.Error(t, err)
	}
	require.Equal(t, circuitbreaker.StateOpen, gw.Breaker().State())

	before := src.calls
	_, err := gw.CoursesByFilter(context.Background(), subjectFilter(), "ay-2026")
	assert.True(t, shared.IsCatalogUnavailable(err))
	assert.Equal(t, before, src.calls, "open circuit must not reach the source")
}
