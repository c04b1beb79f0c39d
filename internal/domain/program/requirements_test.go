package program

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planvault/degree-audit/internal/domain/catalog"
)

const sampleRequirements = `{
	"sections": [
		{
			"id": "core",
			"title": "Core Courses",
			"creditsRequired": 12,
			"requirements": [
				{
					"id": "intro",
					"title": "Introductory Programming",
					"creditsRequired": 6,
					"rule": {
						"kind": "take_any_courses",
						"filter": {"type": "subject_number", "subjects": ["CS"], "numbers": [{"type": "range", "min": 1000, "max": 1999}]}
					}
				},
				{
					"id": "capstone",
					"title": "Capstone",
					"creditsRequired": 6,
					"rule": {"kind": "complete_thesis", "advisor": true}
				}
			]
		},
		{
			"id": "liberal",
			"title": "Liberal Arts",
			"creditsRequired": 9,
			"requirements": [
				{
					"id": "hca",
					"title": "Humanities",
					"creditsRequired": 9,
					"rule": {
						"kind": "take_any_courses",
						"filter": {"type": "attribute", "attributes": ["HCA"]}
					}
				}
			]
		}
	]
}`

func TestParseRequirements(t *testing.T) {
	reqs, err := ParseRequirements([]byte(sampleRequirements))
	require.NoError(t, err)

	require.Len(t, reqs.Sections, 2)
	assert.Equal(t, 21.0, reqs.TotalCreditsRequired())

	intro, ok := reqs.FindRequirement(Key("core", "intro"))
	require.True(t, ok)
	assert.True(t, intro.Rule.IsFilterRule())
	assert.Equal(t, catalog.FilterSubjectNumber, intro.Rule.Filter.Type())

	capstone, ok := reqs.FindRequirement(Key("core", "capstone"))
	require.True(t, ok)
	assert.False(t, capstone.Rule.IsFilterRule(), "unknown rule kinds are opaque")
	assert.NotEmpty(t, capstone.Rule.Raw)

	_, ok = reqs.FindRequirement(Key("core", "missing"))
	assert.False(t, ok)
}

func TestRule_RoundTripPreservesOpaqueKinds(t *testing.T) {
	reqs, err := ParseRequirements([]byte(sampleRequirements))
	require.NoError(t, err)

	capstone, ok := reqs.FindRequirement(Key("core", "capstone"))
	require.True(t, ok)

	data, err := json.Marshal(capstone.Rule)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind": "complete_thesis", "advisor": true}`, string(data))
}

func TestRule_FilterRuleRequiresFilter(t *testing.T) {
	var rule Rule
	err := json.Unmarshal([]byte(`{"kind": "take_any_courses"}`), &rule)
	assert.Error(t, err)
}

func TestRequirementKey_String(t *testing.T) {
	assert.Equal(t, "core.intro", Key("core", "intro").String())
}

func TestWellFormed(t *testing.T) {
	assert.False(t, Section{}.WellFormed())
	assert.False(t, Requirement{}.WellFormed())
	assert.True(t, Section{ID: "s"}.WellFormed())
	assert.True(t, Requirement{ID: "r"}.WellFormed())
}
