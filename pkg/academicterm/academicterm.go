// Package academicterm provides term-code and semester-ordinal helpers for
// degree plans. Plans store semesters as ordinals (1 = first fall), while
// class offerings carry term codes like "2025F"; this package converts
// between the two and formats both for display.
// No external dependencies - uses only standard library.
package academicterm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Season is the part of a term code after the year.
type Season string

const (
	// Fall is the first season of an academic year.
	Fall Season = "F"
	// Spring is the second season of an academic year.
	Spring Season = "S"
	// Summer sits between academic years and never advances the ordinal.
	Summer Season = "U"
)

// ErrInvalidTermCode is returned for term codes that don't parse.
var ErrInvalidTermCode = errors.New("invalid term code")

// ErrInvalidSemester is returned for non-positive semester ordinals.
var ErrInvalidSemester = errors.New("invalid semester ordinal")

// Term is a parsed term code.
type Term struct {
	// Year is the calendar year the term starts in.
	Year int

	// Season is the term's season.
	Season Season
}

// Parse parses a term code like "2025F" or "2026S".
func Parse(code string) (Term, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 5 {
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTermCode, code)
	}

	year, err := strconv.Atoi(code[:4])
	if err != nil || year < 1900 || year > 2999 {
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTermCode, code)
	}

	season := Season(code[4:])
	switch season {
	case Fall, Spring, Summer:
		return Term{Year: year, Season: season}, nil
	default:
		return Term{}, fmt.Errorf("%w: %q", ErrInvalidTermCode, code)
	}
}

// Code renders the term back to its wire form.
func (t Term) Code() string {
	return fmt.Sprintf("%04d%s", t.Year, t.Season)
}

// String renders a human-readable label like "Fall 2025".
func (t Term) String() string {
	switch t.Season {
	case Fall:
		return fmt.Sprintf("Fall %d", t.Year)
	case Spring:
		return fmt.Sprintf("Spring %d", t.Year)
	case Summer:
		return fmt.Sprintf("Summer %d", t.Year)
	default:
		return t.Code()
	}
}

// Before reports whether t starts before other. Within one calendar year the
// order is Spring, Summer, Fall.
func (t Term) Before(other Term) bool {
	if t.Year != other.Year {
		return t.Year < other.Year
	}
	return seasonRank(t.Season) < seasonRank(other.Season)
}

func seasonRank(s Season) int {
	switch s {
	case Spring:
		return 0
	case Summer:
		return 1
	case Fall:
		return 2
	default:
		return 3
	}
}

// Semester converts the term to a plan semester ordinal given the term a
// student's plan starts in. Fall and Spring advance the ordinal; Summer maps
// to the ordinal of the preceding Spring. Returns ErrInvalidSemester when the
// term precedes the start.
func (t Term) Semester(start Term) (int, error) {
	if t.Before(start) {
		return 0, fmt.Errorf("%w: term %s precedes plan start %s", ErrInvalidSemester, t.Code(), start.Code())
	}

	ordinal := (t.Year - start.Year) * 2
	switch {
	case start.Season == Fall && (t.Season == Spring || t.Season == Summer):
		ordinal++
	case start.Season == Spring && t.Season == Fall:
		ordinal++
	}
	return ordinal + 1, nil
}

// SemesterLabel renders a plan semester ordinal as "Year N Fall/Spring",
// assuming the common fall start. Out-of-range ordinals render as "Semester N".
func SemesterLabel(semester int) string {
	if semester < 1 {
		return fmt.Sprintf("Semester %d", semester)
	}
	year := (semester-1)/2 + 1
	if semester%2 == 1 {
		return fmt.Sprintf("Year %d Fall", year)
	}
	return fmt.Sprintf("Year %d Spring", year)
}

// CurrentTerm returns the term containing the given time, using month
// boundaries typical of a US academic calendar.
func CurrentTerm(now time.Time) Term {
	switch {
	case now.Month() >= time.August:
		return Term{Year: now.Year(), Season: Fall}
	case now.Month() >= time.May:
		return Term{Year: now.Year(), Season: Summer}
	default:
		return Term{Year: now.Year(), Season: Spring}
	}
}

// AcademicYearLabel renders the academic year a term belongs to, e.g.
// "2025-2026" for both 2025F and 2026S.
func AcademicYearLabel(t Term) string {
	if t.Season == Fall {
		return fmt.Sprintf("%d-%d", t.Year, t.Year+1)
	}
	return fmt.Sprintf("%d-%d", t.Year-1, t.Year)
}
