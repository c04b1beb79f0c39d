package catalog

import (
	"context"
	"sort"
)

// QueryPlanner resolves a filter to its matching course set for one academic
// year. Simple, index-friendly filter shapes are pushed down to the store as
// targeted queries; every other shape falls back to fetching the full catalog
// for the year and applying the evaluator in memory. The fallback trades query
// precision for correctness on filters too expressive for simple predicates.
type QueryPlanner struct {
	store Store
}

// NewQueryPlanner creates a planner over the given catalog store.
func NewQueryPlanner(store Store) *QueryPlanner {
	return &QueryPlanner{store: store}
}

// CoursesByFilter returns every catalog course matching the filter within the
// academic year, ordered by subject code then course number.
func (p *QueryPlanner) CoursesByFilter(ctx context.Context, filter CourseFilter, academicYearID string) ([]*Course, error) {
	switch f := filter.(type) {
	case *AnyFilter:
		return p.store.GetByAcademicYear(ctx, academicYearID)

	case *CourseListFilter:
		return p.store.GetByIDs(ctx, academicYearID, f.CourseIDs)

	case *SubjectNumberFilter:
		// Only the unconstrained shape is a pure subject lookup.
		if len(f.Numbers) == 0 && len(f.ExcludeCourseIDs) == 0 {
			return p.store.GetBySubjects(ctx, academicYearID, f.Subjects)
		}
		return p.scanAll(ctx, filter, academicYearID)

	case *CourseNumberSuffixFilter:
		if len(f.ExcludeCourseIDs) == 0 {
			return p.store.GetBySuffixes(ctx, academicYearID, f.Subjects, f.Suffixes)
		}
		return p.scanAll(ctx, filter, academicYearID)

	case *AttributeFilter, *NumberAttributeFilter, *CompositeFilter:
		return p.scanAll(ctx, filter, academicYearID)

	default:
		return p.scanAll(ctx, filter, academicYearID)
	}
}

// scanAll is the fallback path: full-year fetch plus in-memory evaluation.
func (p *QueryPlanner) scanAll(ctx context.Context, filter CourseFilter, academicYearID string) ([]*Course, error) {
	all, err := p.store.GetByAcademicYear(ctx, academicYearID)
	if err != nil {
		return nil, err
	}

	matched := make([]*Course, 0, len(all)/4)
	for _, course := range all {
		if Evaluate(course, filter) {
			matched = append(matched, course)
		}
	}

	SortCourses(matched)
	return matched, nil
}

// SortCourses orders courses by subject code, then course number, matching
// the ordering contract of targeted store queries.
func SortCourses(courses []*Course) {
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].SubjectCode != courses[j].SubjectCode {
			return courses[i].SubjectCode < courses[j].SubjectCode
		}
		return courses[i].CourseNumber < courses[j].CourseNumber
	})
}
