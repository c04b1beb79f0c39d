package program

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func treeWithConstraints(constraints map[string][]Constraint) Requirements {
	section := Section{ID: "s1"}
	for _, id := range []string{"a", "b", "c"} {
		req := Requirement{ID: id, CreditsRequired: 3}
		req.Constraints = constraints[id]
		section.Requirements = append(section.Requirements, req)
	}
	return Requirements{Sections: []Section{section}}
}

func doubleCountWith(keys ...string) Constraint {
	params, _ := json.Marshal(map[string][]string{"with": keys})
	return Constraint{Type: ConstraintDoubleCount, Params: params}
}

func TestDoubleCountMap_DefaultDeny(t *testing.T) {
	m := BuildDoubleCountMap(treeWithConstraints(nil))
	assert.False(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "b")))
	assert.True(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "a")), "self is trivially allowed")
}

func TestDoubleCountMap_ExplicitPairIsSymmetric(t *testing.T) {
	m := BuildDoubleCountMap(treeWithConstraints(map[string][]Constraint{
		"a": {doubleCountWith("s1.b")},
	}))

	assert.True(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "b")))
	assert.True(t, m.CanDoubleCount(Key("s1", "b"), Key("s1", "a")))
	assert.False(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "c")))
}

func TestDoubleCountMap_SharedCreditOpensWholeSection(t *testing.T) {
	shared := Constraint{Type: ConstraintSharedCredit}
	m := BuildDoubleCountMap(Requirements{Sections: []Section{
		{
			ID:          "s1",
			Constraints: []Constraint{shared},
			Requirements: []Requirement{
				{ID: "a", CreditsRequired: 3},
				{ID: "b", CreditsRequired: 3},
			},
		},
		{
			ID: "s2",
			Requirements: []Requirement{
				{ID: "c", CreditsRequired: 3},
			},
		},
	}})

	assert.True(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "b")))
	assert.True(t, m.CanDoubleCount(Key("s1", "b"), Key("s1", "a")))
	assert.False(t, m.CanDoubleCount(Key("s1", "a"), Key("s2", "c")), "shared_credit never crosses sections")
}

func TestDoubleCountMap_SharedCreditScopedPerSection(t *testing.T) {
	shared := Constraint{Type: ConstraintSharedCredit}
	m := BuildDoubleCountMap(Requirements{Sections: []Section{
		{
			ID:           "s1",
			Constraints:  []Constraint{shared},
			Requirements: []Requirement{{ID: "a", CreditsRequired: 3}},
		},
		{
			ID:           "s2",
			Constraints:  []Constraint{shared},
			Requirements: []Requirement{{ID: "b", CreditsRequired: 3}},
		},
	}})

	assert.False(t, m.CanDoubleCount(Key("s1", "a"), Key("s2", "b")), "two shared sections stay closed to each other")
}

func TestDoubleCountMap_SharedCreditIgnoredOnRequirements(t *testing.T) {
	shared := Constraint{Type: ConstraintSharedCredit}
	m := BuildDoubleCountMap(treeWithConstraints(map[string][]Constraint{
		"a": {shared},
		"b": {shared},
	}))

	assert.False(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "b")))
}

func TestDoubleCountMap_MalformedParamsStayDenied(t *testing.T) {
	m := BuildDoubleCountMap(treeWithConstraints(map[string][]Constraint{
		"a": {{Type: ConstraintDoubleCount, Params: json.RawMessage(`{"with": "not-a-list"}`)}},
	}))
	assert.False(t, m.CanDoubleCount(Key("s1", "a"), Key("s1", "b")))
}
