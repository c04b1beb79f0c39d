// Package catalog contains the course catalog domain model: the immutable
// Course reference entity, the CourseFilter predicate language used by degree
// requirements, the filter evaluator and specificity scorer, and the query
// planner that resolves filters to course sets.
// This is a pure domain layer with zero external dependencies.
package catalog

import (
	"errors"
	"strconv"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// SubjectCode identifies a subject area, e.g. "CS" or "MATH".
type SubjectCode string

// IsValid checks that the subject code is a short non-empty token.
func (s SubjectCode) IsValid() bool {
	code := string(s)
	return len(code) >= 2 && len(code) <= 10 && !strings.ContainsAny(code, " \t\n\r")
}

// String returns the string representation of the subject code.
func (s SubjectCode) String() string {
	return string(s)
}

// AttributeType selects which of a course's attribute lists a filter reads.
type AttributeType string

const (
	// AttributeAxle restricts matching to the AXLE attribute list.
	AttributeAxle AttributeType = "axle"
	// AttributeCore restricts matching to the CORE attribute list.
	AttributeCore AttributeType = "core"
	// AttributeBoth matches against both lists. This is the default when a
	// filter leaves the attribute type unset.
	AttributeBoth AttributeType = "both"
)

// IsValid checks that the attribute type is one of the known values.
func (a AttributeType) IsValid() bool {
	switch a {
	case AttributeAxle, AttributeCore, AttributeBoth, "":
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: COURSE
// ══════════════════════════════════════════════════════════════════════════════

// Course is an immutable catalog entry scoped to one academic year.
type Course struct {
	// ID is the catalog-wide unique identifier (UUID in string form).
	ID string

	// SubjectCode is the subject area, e.g. "CS".
	SubjectCode string

	// CourseNumber is the catalog number as printed, digits plus an optional
	// letter suffix, e.g. "1101" or "3890W".
	CourseNumber string

	// Name is the catalog title.
	Name string

	// MinCredits and MaxCredits bound variable-credit courses. Fixed-credit
	// courses carry the same value in both.
	MinCredits float64
	MaxCredits float64

	// AxleAttributes and CoreAttributes are the general-education tag lists
	// produced by the catalog ingestion pipeline.
	AxleAttributes []string
	CoreAttributes []string

	// AcademicYearID scopes the entry to one catalog edition.
	AcademicYearID string
}

// Domain errors.
var (
	// ErrInvalidCourse is returned for a course missing identity fields.
	ErrInvalidCourse = errors.New("invalid course: id, subject and number are required")

	// ErrInvalidCredits is returned when credit bounds are negative or inverted.
	ErrInvalidCredits = errors.New("invalid credits: must be non-negative with min <= max")
)

// NewCourse creates a catalog course with validation.
func NewCourse(id, subject, number string, minCredits, maxCredits float64) (*Course, error) {
	if id == "" || number == "" || !SubjectCode(subject).IsValid() {
		return nil, ErrInvalidCourse
	}
	if minCredits < 0 || maxCredits < minCredits {
		return nil, ErrInvalidCredits
	}
	return &Course{
		ID:           id,
		SubjectCode:  subject,
		CourseNumber: number,
		MinCredits:   minCredits,
		MaxCredits:   maxCredits,
	}, nil
}

// Code returns the printable course code, e.g. "CS 1101".
func (c *Course) Code() string {
	return c.SubjectCode + " " + c.CourseNumber
}

// Credits returns the credits a course contributes when the plan does not pin
// a value: the fixed value for fixed-credit courses, the minimum otherwise.
func (c *Course) Credits() float64 {
	return c.MinCredits
}

// NumericNumber returns the leading numeric portion of the course number.
// "3890W" yields 3890. The second return is false when the number has no
// leading digits, in which case numeric constraints never match.
func (c *Course) NumericNumber() (int, bool) {
	return numericCourseNumber(c.CourseNumber)
}

// Attributes returns the attribute list selected by the given type. Both
// lists are concatenated for AttributeBoth (and for the unset default).
func (c *Course) Attributes(t AttributeType) []string {
	switch t {
	case AttributeAxle:
		return c.AxleAttributes
	case AttributeCore:
		return c.CoreAttributes
	default:
		if len(c.AxleAttributes) == 0 {
			return c.CoreAttributes
		}
		if len(c.CoreAttributes) == 0 {
			return c.AxleAttributes
		}
		combined := make([]string, 0, len(c.AxleAttributes)+len(c.CoreAttributes))
		combined = append(combined, c.AxleAttributes...)
		combined = append(combined, c.CoreAttributes...)
		return combined
	}
}

// HasAnyAttribute reports whether the selected attribute lists intersect the
// wanted list. A course with no attributes never matches.
func (c *Course) HasAnyAttribute(t AttributeType, wanted []string) bool {
	have := c.Attributes(t)
	if len(have) == 0 || len(wanted) == 0 {
		return false
	}
	for _, w := range wanted {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy of the course.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	clone := *c
	clone.AxleAttributes = append([]string(nil), c.AxleAttributes...)
	clone.CoreAttributes = append([]string(nil), c.CoreAttributes...)
	return &clone
}

// numericCourseNumber parses the leading digits of a catalog number.
func numericCourseNumber(number string) (int, bool) {
	end := 0
	for end < len(number) && number[end] >= '0' && number[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(number[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
