package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const courseColumns = `id, academic_year_id, subject_code, course_number, name,
	   min_credits, max_credits, axle_attributes, core_attributes`

// CatalogRepository implements catalog.Repository for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// GetByAcademicYear returns every course of one catalog edition.
func (r *CatalogRepository) GetByAcademicYear(ctx context.Context, academicYearID string) ([]*catalog.Course, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_courses
		WHERE academic_year_id = $1
		ORDER BY subject_code, course_number
	`, courseColumns)

	rows, err := r.conn.Query(ctx, query, academicYearID)
	if err != nil {
		return nil, shared.WrapError("catalog", "GetByAcademicYear", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// GetByIDs returns the listed courses within an academic year. Missing ids
// are skipped.
func (r *CatalogRepository) GetByIDs(ctx context.Context, academicYearID string, ids []string) ([]*catalog.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_courses
		WHERE academic_year_id = $1 AND id = ANY($2)
		ORDER BY subject_code, course_number
	`, courseColumns)

	rows, err := r.conn.Query(ctx, query, academicYearID, ids)
	if err != nil {
		return nil, shared.WrapError("catalog", "GetByIDs", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// GetBySubjects returns all courses in the given subjects.
func (r *CatalogRepository) GetBySubjects(ctx context.Context, academicYearID string, subjects []string) ([]*catalog.Course, error) {
	if len(subjects) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_courses
		WHERE academic_year_id = $1 AND subject_code = ANY($2)
		ORDER BY subject_code, course_number
	`, courseColumns)

	rows, err := r.conn.Query(ctx, query, academicYearID, subjects)
	if err != nil {
		return nil, shared.WrapError("catalog", "GetBySubjects", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// GetBySuffixes returns all courses whose number ends with one of the
// suffixes, optionally scoped to subjects.
func (r *CatalogRepository) GetBySuffixes(ctx context.Context, academicYearID string, subjects, suffixes []string) ([]*catalog.Course, error) {
	if len(suffixes) == 0 {
		return nil, nil
	}

	patterns := make([]string, 0, len(suffixes))
	for _, suffix := range suffixes {
		patterns = append(patterns, "%"+suffix)
	}

	var (
		rows pgx.Rows
		err  error
	)
	if len(subjects) > 0 {
		query := fmt.Sprintf(`
			SELECT %s
			FROM catalog_courses
			WHERE academic_year_id = $1
			  AND subject_code = ANY($2)
			  AND course_number LIKE ANY($3)
			ORDER BY subject_code, course_number
		`, courseColumns)
		rows, err = r.conn.Query(ctx, query, academicYearID, subjects, patterns)
	} else {
		query := fmt.Sprintf(`
			SELECT %s
			FROM catalog_courses
			WHERE academic_year_id = $1
			  AND course_number LIKE ANY($2)
			ORDER BY subject_code, course_number
		`, courseColumns)
		rows, err = r.conn.Query(ctx, query, academicYearID, patterns)
	}
	if err != nil {
		return nil, shared.WrapError("catalog", "GetBySuffixes", shared.ErrStoreUnavailable, "query failed", err)
	}
	defer rows.Close()

	return scanCourses(rows)
}

// GetByID returns a catalog course by id.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Course, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM catalog_courses
		WHERE id = $1
	`, courseColumns)

	course, err := scanCourse(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCourseNotFound
		}
		return nil, shared.WrapError("catalog", "GetByID", shared.ErrStoreUnavailable, "query failed", err)
	}
	return course, nil
}

// GetClassCourse resolves a class offering to its effective course view.
// Term-specific credits and attributes override the generic catalog entry
// where present.
func (r *CatalogRepository) GetClassCourse(ctx context.Context, classID string) (*catalog.Course, error) {
	query := `
		SELECT c.id, c.academic_year_id, c.subject_code, c.course_number, c.name,
			   COALESCE(cl.min_credits, c.min_credits),
			   COALESCE(cl.max_credits, c.max_credits),
			   COALESCE(cl.axle_attributes, c.axle_attributes),
			   COALESCE(cl.core_attributes, c.core_attributes)
		FROM classes cl
		JOIN catalog_courses c ON c.id = cl.course_id
		WHERE cl.id = $1
	`

	course, err := scanCourse(r.conn.QueryRow(ctx, query, classID))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrClassNotFound
		}
		return nil, shared.WrapError("catalog", "GetClassCourse", shared.ErrStoreUnavailable, "query failed", err)
	}
	return course, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func scanCourse(row pgx.Row) (*catalog.Course, error) {
	var c catalog.Course
	err := row.Scan(
		&c.ID,
		&c.AcademicYearID,
		&c.SubjectCode,
		&c.CourseNumber,
		&c.Name,
		&c.MinCredits,
		&c.MaxCredits,
		&c.AxleAttributes,
		&c.CoreAttributes,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCourses(rows pgx.Rows) ([]*catalog.Course, error) {
	var courses []*catalog.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course row: %w", err)
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}
