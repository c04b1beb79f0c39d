package program

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/planvault/degree-audit/internal/domain/catalog"
)

func constrainedTree(reqID string, constraints ...Constraint) Requirements {
	return Requirements{Sections: []Section{{
		ID: "s1",
		Requirements: []Requirement{
			{ID: reqID, CreditsRequired: 9, Constraints: constraints},
			{ID: "other", CreditsRequired: 3},
		},
	}}}
}

func testCourse(subject, number string) *catalog.Course {
	return &catalog.Course{
		ID:           subject + "-" + number,
		SubjectCode:  subject,
		CourseNumber: number,
		MinCredits:   3,
		MaxCredits:   3,
	}
}

func prior(key RequirementKey, course *catalog.Course) PriorAssignment {
	return PriorAssignment{Requirement: key, Course: course, Credits: 3}
}

func TestConstraintPolicy_MaxCourses(t *testing.T) {
	policy := NewConstraintPolicy(constrainedTree("r",
		Constraint{Type: ConstraintMaxCourses, Params: json.RawMessage(`{"max": 2}`)},
	))
	key := Key("s1", "r")

	history := []PriorAssignment{
		prior(key, testCourse("CS", "1101")),
	}
	assert.True(t, policy.Allow(testCourse("CS", "2201"), key, history))

	history = append(history, prior(key, testCourse("CS", "2201")))
	assert.False(t, policy.Allow(testCourse("CS", "3251"), key, history), "cap reached")
}

func TestConstraintPolicy_DistinctSubjects(t *testing.T) {
	policy := NewConstraintPolicy(constrainedTree("r",
		Constraint{Type: ConstraintDistinctSubjects},
	))
	key := Key("s1", "r")

	history := []PriorAssignment{prior(key, testCourse("CS", "1101"))}
	assert.False(t, policy.Allow(testCourse("CS", "2201"), key, history))
	assert.True(t, policy.Allow(testCourse("MATH", "1300"), key, history))
}

func TestConstraintPolicy_AfterRequirement(t *testing.T) {
	policy := NewConstraintPolicy(constrainedTree("r",
		Constraint{Type: ConstraintAfterRequirement, Params: json.RawMessage(`{"requirement": "s1.other"}`)},
	))
	key := Key("s1", "r")

	assert.False(t, policy.Allow(testCourse("CS", "1101"), key, nil), "gated until s1.other has an assignment")

	history := []PriorAssignment{prior(Key("s1", "other"), testCourse("MATH", "1300"))}
	assert.True(t, policy.Allow(testCourse("CS", "1101"), key, history))
}

func TestConstraintPolicy_UnknownTypesNeverBlock(t *testing.T) {
	policy := NewConstraintPolicy(constrainedTree("r",
		Constraint{Type: "residency", Params: json.RawMessage(`{"campus": true}`)},
	))
	assert.True(t, policy.Allow(testCourse("CS", "1101"), Key("s1", "r"), nil))
}

func TestAllowAll(t *testing.T) {
	assert.True(t, AllowAll.Allow(nil, Key("s", "r"), nil))
}
