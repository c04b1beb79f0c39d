package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func course(subject, number string, opts ...func(*Course)) *Course {
	c := &Course{
		ID:             subject + "-" + number,
		SubjectCode:    subject,
		CourseNumber:   number,
		Name:           subject + " " + number,
		MinCredits:     3,
		MaxCredits:     3,
		AcademicYearID: "ay-2026",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func withAxle(attrs ...string) func(*Course) {
	return func(c *Course) { c.AxleAttributes = attrs }
}

func withCore(attrs ...string) func(*Course) {
	return func(c *Course) { c.CoreAttributes = attrs }
}

func intPtr(v int) *int { return &v }

func TestEvaluate_Any(t *testing.T) {
	assert.True(t, Evaluate(course("CS", "1101"), &AnyFilter{}))
}

func TestEvaluate_SubjectNumberRange(t *testing.T) {
	filter := &SubjectNumberFilter{
		Subjects: []string{"CS"},
		Numbers: []NumberConstraint{
			{Type: NumberRange, Min: 1000, Max: intPtr(1999)},
		},
	}

	assert.True(t, Evaluate(course("CS", "1101"), filter))
	assert.False(t, Evaluate(course("MATH", "1101"), filter), "subject not in list")
	assert.False(t, Evaluate(course("CS", "2201"), filter), "number outside range")
}

func TestEvaluate_SubjectNumberSpecificAndUnboundedRange(t *testing.T) {
	specific := &SubjectNumberFilter{
		Subjects: []string{"CS"},
		Numbers:  []NumberConstraint{{Type: NumberSpecific, Values: []string{"3251"}}},
	}
	assert.True(t, Evaluate(course("CS", "3251"), specific))
	assert.False(t, Evaluate(course("CS", "3250"), specific))

	unbounded := &SubjectNumberFilter{
		Subjects: []string{"CS"},
		Numbers:  []NumberConstraint{{Type: NumberRange, Min: 3000}},
	}
	assert.True(t, Evaluate(course("CS", "9999"), unbounded), "nil max is unbounded")
	assert.False(t, Evaluate(course("CS", "2999"), unbounded))
}

func TestEvaluate_SubjectNumberExclusionShortCircuits(t *testing.T) {
	filter := &SubjectNumberFilter{
		Subjects:         []string{"CS"},
		ExcludeCourseIDs: []string{"CS-1101"},
	}
	assert.False(t, Evaluate(course("CS", "1101"), filter))
	assert.True(t, Evaluate(course("CS", "1104"), filter))
}

func TestEvaluate_Attribute(t *testing.T) {
	filter := &AttributeFilter{
		Attributes:    []string{"HCA", "SBS"},
		AttributeType: AttributeAxle,
	}

	assert.True(t, Evaluate(course("HIST", "1200", withAxle("HCA")), filter))
	assert.False(t, Evaluate(course("HIST", "1200", withCore("HCA")), filter), "core list ignored when type is axle")
	assert.False(t, Evaluate(course("HIST", "1200"), filter), "no attributes never matches")
}

func TestEvaluate_AttributeSubjectExclusionFirst(t *testing.T) {
	filter := &AttributeFilter{
		Attributes:      []string{"HCA"},
		ExcludeSubjects: []string{"HIST"},
	}
	assert.False(t, Evaluate(course("HIST", "1200", withAxle("HCA")), filter))
	assert.True(t, Evaluate(course("CLAS", "1200", withAxle("HCA")), filter))
}

func TestEvaluate_CourseList(t *testing.T) {
	filter := &CourseListFilter{CourseIDs: []string{"CS-1101", "CS-2201"}}
	assert.True(t, Evaluate(course("CS", "2201"), filter))
	assert.False(t, Evaluate(course("CS", "3251"), filter))
}

func TestEvaluate_Suffix(t *testing.T) {
	filter := &CourseNumberSuffixFilter{
		Suffixes: []string{"W"},
		Subjects: []string{"ENGL"},
	}
	assert.True(t, Evaluate(course("ENGL", "3210W"), filter))
	assert.False(t, Evaluate(course("ENGL", "3210"), filter))
	assert.False(t, Evaluate(course("HIST", "3210W"), filter), "subject scoping applies")
}

func TestEvaluate_NumberAttributeAllGates(t *testing.T) {
	filter := &NumberAttributeFilter{
		Subjects:   []string{"BSCI"},
		Numbers:    []NumberConstraint{{Type: NumberRange, Min: 2000, Max: intPtr(4999)}},
		Attributes: []string{"MNS"},
	}

	assert.True(t, Evaluate(course("BSCI", "2218", withAxle("MNS")), filter))
	assert.False(t, Evaluate(course("BSCI", "1510", withAxle("MNS")), filter), "number gate")
	assert.False(t, Evaluate(course("BSCI", "2218"), filter), "attribute gate")
	assert.False(t, Evaluate(course("CHEM", "2218", withAxle("MNS")), filter), "subject gate")
}

func TestEvaluate_CompositeOperators(t *testing.T) {
	cs := &SubjectNumberFilter{Subjects: []string{"CS"}}
	writing := &CourseNumberSuffixFilter{Suffixes: []string{"W"}}

	and := &CompositeFilter{Operator: OperatorAnd, Filters: []CourseFilter{cs, writing}}
	or := &CompositeFilter{Operator: OperatorOr, Filters: []CourseFilter{cs, writing}}

	assert.True(t, Evaluate(course("CS", "3891W"), and))
	assert.False(t, Evaluate(course("CS", "3891"), and))
	assert.True(t, Evaluate(course("ENGL", "3210W"), or))
	assert.False(t, Evaluate(course("ENGL", "3210"), or))
}

func TestEvaluate_NumberlessCourseSkipsRanges(t *testing.T) {
	filter := &SubjectNumberFilter{
		Subjects: []string{"MUSC"},
		Numbers:  []NumberConstraint{{Type: NumberRange, Min: 1000}},
	}
	c := course("MUSC", "APL")
	require.NotNil(t, c)
	assert.False(t, Evaluate(c, filter), "no numeric part cannot satisfy a range")
}
