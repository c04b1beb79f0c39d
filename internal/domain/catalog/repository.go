package catalog

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Store defines the catalog read operations the query planner pushes down.
// Targeted queries return results ordered by subject code, then course number.
type Store interface {
	// GetByAcademicYear returns every catalog course for an academic year,
	// ordered by subject code then course number.
	GetByAcademicYear(ctx context.Context, academicYearID string) ([]*Course, error)

	// GetByIDs returns the courses with the given ids within an academic year,
	// ordered by subject code then course number. Missing ids are skipped.
	GetByIDs(ctx context.Context, academicYearID string, ids []string) ([]*Course, error)

	// GetBySubjects returns all courses in the given subjects within an
	// academic year, ordered by subject code then course number.
	GetBySubjects(ctx context.Context, academicYearID string, subjects []string) ([]*Course, error)

	// GetBySuffixes returns all courses whose number ends with one of the
	// suffixes, optionally scoped to subjects (empty slice means all subjects),
	// ordered by subject code then course number.
	GetBySuffixes(ctx context.Context, academicYearID string, subjects, suffixes []string) ([]*Course, error)
}

// Repository extends Store with single-record lookups used when resolving
// planned courses.
type Repository interface {
	Store

	// GetByID returns a catalog course by id.
	// Returns shared.ErrCourseNotFound when absent.
	GetByID(ctx context.Context, id string) (*Course, error)

	// GetClassCourse resolves a semester-specific class offering to its
	// effective course view (term credits and attributes take precedence over
	// the generic catalog entry).
	// Returns shared.ErrClassNotFound when absent.
	GetClassCourse(ctx context.Context, classID string) (*Course, error)
}
