package catalog

import (
	"strings"
)

// Evaluate reports whether a single course satisfies a filter. The switch is
// exhaustive over the sealed variant set; an unknown variant (impossible
// without extending the union) matches nothing.
func Evaluate(course *Course, filter CourseFilter) bool {
	if course == nil || filter == nil {
		return false
	}

	switch f := filter.(type) {
	case *AnyFilter:
		return true

	case *SubjectNumberFilter:
		if !containsString(f.Subjects, course.SubjectCode) {
			return false
		}
		if containsString(f.ExcludeCourseIDs, course.ID) {
			return false
		}
		if len(f.Numbers) > 0 && !matchesAnyNumberConstraint(course, f.Numbers) {
			return false
		}
		return true

	case *AttributeFilter:
		if containsString(f.ExcludeSubjects, course.SubjectCode) {
			return false
		}
		return course.HasAnyAttribute(f.AttributeType, f.Attributes)

	case *CourseListFilter:
		return containsString(f.CourseIDs, course.ID)

	case *CourseNumberSuffixFilter:
		if len(f.Subjects) > 0 && !containsString(f.Subjects, course.SubjectCode) {
			return false
		}
		if containsString(f.ExcludeCourseIDs, course.ID) {
			return false
		}
		for _, suffix := range f.Suffixes {
			if suffix != "" && strings.HasSuffix(course.CourseNumber, suffix) {
				return true
			}
		}
		return false

	case *NumberAttributeFilter:
		if len(f.Subjects) > 0 && !containsString(f.Subjects, course.SubjectCode) {
			return false
		}
		if containsString(f.ExcludeSubjects, course.SubjectCode) {
			return false
		}
		if containsString(f.ExcludeCourseIDs, course.ID) {
			return false
		}
		if !matchesAnyNumberConstraint(course, f.Numbers) {
			return false
		}
		return course.HasAnyAttribute(f.AttributeType, f.Attributes)

	case *CompositeFilter:
		switch f.Operator {
		case OperatorAnd:
			for _, sub := range f.Filters {
				if !Evaluate(course, sub) {
					return false
				}
			}
			return len(f.Filters) > 0
		case OperatorOr:
			for _, sub := range f.Filters {
				if Evaluate(course, sub) {
					return true
				}
			}
			return false
		default:
			return false
		}

	default:
		return false
	}
}

// matchesAnyNumberConstraint reports whether the course number satisfies at
// least one constraint. Specific constraints compare the raw number string;
// range constraints compare the leading numeric portion, with a nil max
// meaning unbounded.
func matchesAnyNumberConstraint(course *Course, constraints []NumberConstraint) bool {
	for _, nc := range constraints {
		switch nc.Type {
		case NumberSpecific:
			if containsString(nc.Values, course.CourseNumber) {
				return true
			}
		case NumberRange:
			n, ok := course.NumericNumber()
			if !ok {
				continue
			}
			if n >= nc.Min && (nc.Max == nil || n <= *nc.Max) {
				return true
			}
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
