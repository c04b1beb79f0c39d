package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ══════════════════════════════════════════════════════════════════════════════
// FILTER UNION
// CourseFilter is a closed set of predicate variants over a Course. The set is
// sealed by the unexported marker method: adding a new variant forces every
// exhaustive switch in the evaluator, scorer, and planner to be revisited.
// ══════════════════════════════════════════════════════════════════════════════

// FilterType discriminates the filter variants on the wire.
type FilterType string

const (
	FilterAny                FilterType = "any"
	FilterSubjectNumber      FilterType = "subject_number"
	FilterAttribute          FilterType = "attribute"
	FilterCourseList         FilterType = "course_list"
	FilterCourseNumberSuffix FilterType = "course_number_suffix"
	FilterNumberAttribute    FilterType = "number_attribute"
	FilterComposite          FilterType = "composite"
)

// CourseFilter is one predicate variant over a Course.
type CourseFilter interface {
	// Type returns the wire discriminator of the variant.
	Type() FilterType

	isCourseFilter()
}

// CompositeOperator combines sub-filters in a CompositeFilter.
type CompositeOperator string

const (
	// OperatorAnd requires every sub-filter to match.
	OperatorAnd CompositeOperator = "AND"
	// OperatorOr requires at least one sub-filter to match.
	OperatorOr CompositeOperator = "OR"
)

// NumberConstraintType discriminates numeric constraint variants.
type NumberConstraintType string

const (
	// NumberSpecific matches the course number string against a value list.
	NumberSpecific NumberConstraintType = "specific"
	// NumberRange compares the numeric course number against min/max bounds.
	NumberRange NumberConstraintType = "range"
)

// NumberConstraint restricts the course number of a matching course.
type NumberConstraint struct {
	// Type selects specific-value or range semantics.
	Type NumberConstraintType `json:"type"`

	// Values lists exact course-number strings (specific only).
	Values []string `json:"values,omitempty"`

	// Min is the inclusive lower bound (range only).
	Min int `json:"min,omitempty"`

	// Max is the inclusive upper bound (range only). Nil means unbounded.
	Max *int `json:"max,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Variants
// ─────────────────────────────────────────────────────────────────────────────

// AnyFilter matches every course.
type AnyFilter struct{}

func (*AnyFilter) Type() FilterType { return FilterAny }
func (*AnyFilter) isCourseFilter()  {}

// SubjectNumberFilter matches courses by subject membership with optional
// numeric constraints and a course-id exclusion list.
type SubjectNumberFilter struct {
	Subjects         []string           `json:"subjects"`
	Numbers          []NumberConstraint `json:"numbers,omitempty"`
	ExcludeCourseIDs []string           `json:"exclude,omitempty"`
}

func (*SubjectNumberFilter) Type() FilterType { return FilterSubjectNumber }
func (*SubjectNumberFilter) isCourseFilter()  {}

// AttributeFilter matches courses carrying any of the listed AXLE/CORE
// attributes, with optional subject exclusion.
type AttributeFilter struct {
	Attributes      []string      `json:"attributes"`
	AttributeType   AttributeType `json:"attributeType,omitempty"`
	ExcludeSubjects []string      `json:"excludeSubjects,omitempty"`
}

func (*AttributeFilter) Type() FilterType { return FilterAttribute }
func (*AttributeFilter) isCourseFilter()  {}

// CourseListFilter matches an explicit course-id allow-list.
type CourseListFilter struct {
	CourseIDs []string `json:"courses"`
}

func (*CourseListFilter) Type() FilterType { return FilterCourseList }
func (*CourseListFilter) isCourseFilter()  {}

// CourseNumberSuffixFilter matches courses whose number ends with one of the
// listed suffixes, optionally scoped to subjects, honoring exclusions.
type CourseNumberSuffixFilter struct {
	Suffixes         []string `json:"suffixes"`
	Subjects         []string `json:"subjects,omitempty"`
	ExcludeCourseIDs []string `json:"exclude,omitempty"`
}

func (*CourseNumberSuffixFilter) Type() FilterType { return FilterCourseNumberSuffix }
func (*CourseNumberSuffixFilter) isCourseFilter()  {}

// NumberAttributeFilter is the conjunction of a numeric constraint set and an
// attribute set, with optional subject scoping and dual exclusion.
type NumberAttributeFilter struct {
	Subjects         []string           `json:"subjects,omitempty"`
	Numbers          []NumberConstraint `json:"numbers"`
	Attributes       []string           `json:"attributes"`
	AttributeType    AttributeType      `json:"attributeType,omitempty"`
	ExcludeSubjects  []string           `json:"excludeSubjects,omitempty"`
	ExcludeCourseIDs []string           `json:"exclude,omitempty"`
}

func (*NumberAttributeFilter) Type() FilterType { return FilterNumberAttribute }
func (*NumberAttributeFilter) isCourseFilter()  {}

// CompositeFilter combines two or more sub-filters with AND/OR.
type CompositeFilter struct {
	Operator CompositeOperator
	Filters  []CourseFilter
}

func (*CompositeFilter) Type() FilterType { return FilterComposite }
func (*CompositeFilter) isCourseFilter()  {}

// ══════════════════════════════════════════════════════════════════════════════
// JSON CODEC
// Filters are persisted inside requirement rules as JSONB, discriminated by a
// "type" field.
// ══════════════════════════════════════════════════════════════════════════════

// ErrUnknownFilterType is returned when decoding an unrecognized discriminator.
var ErrUnknownFilterType = errors.New("catalog: unknown filter type")

type filterEnvelope struct {
	Type FilterType `json:"type"`

	Subjects         []string           `json:"subjects,omitempty"`
	Numbers          []NumberConstraint `json:"numbers,omitempty"`
	Attributes       []string           `json:"attributes,omitempty"`
	AttributeType    AttributeType      `json:"attributeType,omitempty"`
	CourseIDs        []string           `json:"courses,omitempty"`
	Suffixes         []string           `json:"suffixes,omitempty"`
	ExcludeCourseIDs []string           `json:"exclude,omitempty"`
	ExcludeSubjects  []string           `json:"excludeSubjects,omitempty"`

	Operator CompositeOperator `json:"operator,omitempty"`
	Filters  []json.RawMessage `json:"filters,omitempty"`
}

// DecodeFilter parses a filter from its JSON form.
func DecodeFilter(data []byte) (CourseFilter, error) {
	var env filterEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("catalog: decode filter: %w", err)
	}

	switch env.Type {
	case FilterAny:
		return &AnyFilter{}, nil
	case FilterSubjectNumber:
		return &SubjectNumberFilter{
			Subjects:         env.Subjects,
			Numbers:          env.Numbers,
			ExcludeCourseIDs: env.ExcludeCourseIDs,
		}, nil
	case FilterAttribute:
		return &AttributeFilter{
			Attributes:      env.Attributes,
			AttributeType:   env.AttributeType,
			ExcludeSubjects: env.ExcludeSubjects,
		}, nil
	case FilterCourseList:
		return &CourseListFilter{CourseIDs: env.CourseIDs}, nil
	case FilterCourseNumberSuffix:
		return &CourseNumberSuffixFilter{
			Suffixes:         env.Suffixes,
			Subjects:         env.Subjects,
			ExcludeCourseIDs: env.ExcludeCourseIDs,
		}, nil
	case FilterNumberAttribute:
		return &NumberAttributeFilter{
			Subjects:         env.Subjects,
			Numbers:          env.Numbers,
			Attributes:       env.Attributes,
			AttributeType:    env.AttributeType,
			ExcludeSubjects:  env.ExcludeSubjects,
			ExcludeCourseIDs: env.ExcludeCourseIDs,
		}, nil
	case FilterComposite:
		subs := make([]CourseFilter, 0, len(env.Filters))
		for i, raw := range env.Filters {
			sub, err := DecodeFilter(raw)
			if err != nil {
				return nil, fmt.Errorf("catalog: composite sub-filter %d: %w", i, err)
			}
			subs = append(subs, sub)
		}
		return &CompositeFilter{Operator: env.Operator, Filters: subs}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilterType, env.Type)
	}
}

// EncodeFilter serializes a filter to its JSON form.
func EncodeFilter(f CourseFilter) ([]byte, error) {
	env, err := toEnvelope(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

func toEnvelope(f CourseFilter) (*filterEnvelope, error) {
	switch v := f.(type) {
	case *AnyFilter:
		return &filterEnvelope{Type: FilterAny}, nil
	case *SubjectNumberFilter:
		return &filterEnvelope{
			Type:             FilterSubjectNumber,
			Subjects:         v.Subjects,
			Numbers:          v.Numbers,
			ExcludeCourseIDs: v.ExcludeCourseIDs,
		}, nil
	case *AttributeFilter:
		return &filterEnvelope{
			Type:            FilterAttribute,
			Attributes:      v.Attributes,
			AttributeType:   v.AttributeType,
			ExcludeSubjects: v.ExcludeSubjects,
		}, nil
	case *CourseListFilter:
		return &filterEnvelope{Type: FilterCourseList, CourseIDs: v.CourseIDs}, nil
	case *CourseNumberSuffixFilter:
		return &filterEnvelope{
			Type:             FilterCourseNumberSuffix,
			Suffixes:         v.Suffixes,
			Subjects:         v.Subjects,
			ExcludeCourseIDs: v.ExcludeCourseIDs,
		}, nil
	case *NumberAttributeFilter:
		return &filterEnvelope{
			Type:             FilterNumberAttribute,
			Subjects:         v.Subjects,
			Numbers:          v.Numbers,
			Attributes:       v.Attributes,
			AttributeType:    v.AttributeType,
			ExcludeSubjects:  v.ExcludeSubjects,
			ExcludeCourseIDs: v.ExcludeCourseIDs,
		}, nil
	case *CompositeFilter:
		raws := make([]json.RawMessage, 0, len(v.Filters))
		for i, sub := range v.Filters {
			data, err := EncodeFilter(sub)
			if err != nil {
				return nil, fmt.Errorf("catalog: composite sub-filter %d: %w", i, err)
			}
			raws = append(raws, data)
		}
		return &filterEnvelope{Type: FilterComposite, Operator: v.Operator, Filters: raws}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownFilterType, f)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// ValidateFilter enforces per-variant structural invariants, recursing into
// composites. It returns the first violation found, or nil.
func ValidateFilter(f CourseFilter) error {
	if f == nil {
		return errors.New("filter is nil")
	}

	switch v := f.(type) {
	case *AnyFilter:
		return nil

	case *SubjectNumberFilter:
		if len(v.Subjects) == 0 {
			return errors.New("subject_number filter requires at least one subject")
		}
		return validateNumberConstraints(v.Numbers)

	case *AttributeFilter:
		if len(v.Attributes) == 0 {
			return errors.New("attribute filter requires at least one attribute")
		}
		if !v.AttributeType.IsValid() {
			return fmt.Errorf("attribute filter has unknown attribute type %q", v.AttributeType)
		}
		return nil

	case *CourseListFilter:
		if len(v.CourseIDs) == 0 {
			return errors.New("course_list filter requires at least one course id")
		}
		return nil

	case *CourseNumberSuffixFilter:
		if len(v.Suffixes) == 0 {
			return errors.New("course_number_suffix filter requires at least one suffix")
		}
		for _, suffix := range v.Suffixes {
			if suffix == "" {
				return errors.New("course_number_suffix filter has an empty suffix")
			}
		}
		return nil

	case *NumberAttributeFilter:
		if len(v.Numbers) == 0 {
			return errors.New("number_attribute filter requires at least one number constraint")
		}
		if len(v.Attributes) == 0 {
			return errors.New("number_attribute filter requires at least one attribute")
		}
		if !v.AttributeType.IsValid() {
			return fmt.Errorf("number_attribute filter has unknown attribute type %q", v.AttributeType)
		}
		return validateNumberConstraints(v.Numbers)

	case *CompositeFilter:
		if v.Operator != OperatorAnd && v.Operator != OperatorOr {
			return fmt.Errorf("composite filter has unknown operator %q", v.Operator)
		}
		if len(v.Filters) < 2 {
			return errors.New("composite filter requires at least two sub-filters")
		}
		for i, sub := range v.Filters {
			if err := ValidateFilter(sub); err != nil {
				return fmt.Errorf("sub-filter %d: %w", i, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("%w: %T", ErrUnknownFilterType, f)
	}
}

func validateNumberConstraints(constraints []NumberConstraint) error {
	for i, nc := range constraints {
		switch nc.Type {
		case NumberSpecific:
			if len(nc.Values) == 0 {
				return fmt.Errorf("number constraint %d: specific constraint requires values", i)
			}
		case NumberRange:
			if nc.Min < 0 {
				return fmt.Errorf("number constraint %d: range minimum cannot be negative", i)
			}
			if nc.Max != nil && *nc.Max < nc.Min {
				return fmt.Errorf("number constraint %d: range maximum below minimum", i)
			}
		default:
			return fmt.Errorf("number constraint %d: unknown type %q", i, nc.Type)
		}
	}
	return nil
}
