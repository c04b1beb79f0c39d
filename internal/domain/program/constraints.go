package program

import (
	"encoding/json"

	"github.com/planvault/degree-audit/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENFORCEMENT POLICY
// The assigner consults a Policy before committing each assignment. The check
// sees every assignment already made in the same program during the run, so a
// denied candidate may pass on the deferred retry once more context exists.
// ══════════════════════════════════════════════════════════════════════════════

// PriorAssignment is the assigner's view of one already-committed assignment
// within the program being processed.
type PriorAssignment struct {
	Requirement RequirementKey
	Course      *catalog.Course
	Credits     float64
}

// Policy decides whether a course may currently be assigned to a requirement
// given the assignments committed so far in the same program.
type Policy interface {
	Allow(course *catalog.Course, candidate RequirementKey, prior []PriorAssignment) bool
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(course *catalog.Course, candidate RequirementKey, prior []PriorAssignment) bool

// Allow implements Policy.
func (f PolicyFunc) Allow(course *catalog.Course, candidate RequirementKey, prior []PriorAssignment) bool {
	return f(course, candidate, prior)
}

// AllowAll is the permissive policy used when a program declares no
// enforcement constraints.
var AllowAll Policy = PolicyFunc(func(*catalog.Course, RequirementKey, []PriorAssignment) bool {
	return true
})

// ══════════════════════════════════════════════════════════════════════════════
// CONSTRAINT POLICY
// Interprets the structured constraint types the engine knows. Unknown types
// never block an assignment.
// ══════════════════════════════════════════════════════════════════════════════

const (
	// ConstraintMaxCourses caps how many distinct courses a requirement may
	// draw credit from ({"max": 3}).
	ConstraintMaxCourses = "max_courses"

	// ConstraintDistinctSubjects requires every course assigned to the
	// requirement to carry a different subject code.
	ConstraintDistinctSubjects = "distinct_subjects"

	// ConstraintAfterRequirement holds a requirement back until another one
	// has at least one assignment ({"requirement": "secId.reqId"}). Candidates
	// blocked by it are natural deferred-retry material.
	ConstraintAfterRequirement = "after_requirement"
)

type maxCoursesParams struct {
	Max int `json:"max"`
}

type afterRequirementParams struct {
	Requirement string `json:"requirement"`
}

// ConstraintPolicy evaluates the declared constraints of one program's
// requirement tree.
type ConstraintPolicy struct {
	byKey map[string][]Constraint
}

// NewConstraintPolicy indexes the requirement constraints of a tree. Section
// and program level constraints are progress-time validations and do not
// gate individual assignments.
func NewConstraintPolicy(reqs Requirements) *ConstraintPolicy {
	p := &ConstraintPolicy{byKey: make(map[string][]Constraint)}
	for _, section := range reqs.Sections {
		if !section.WellFormed() {
			continue
		}
		for _, req := range section.Requirements {
			if !req.WellFormed() || len(req.Constraints) == 0 {
				continue
			}
			p.byKey[Key(section.ID, req.ID).String()] = req.Constraints
		}
	}
	return p
}

// Allow implements Policy.
func (p *ConstraintPolicy) Allow(course *catalog.Course, candidate RequirementKey, prior []PriorAssignment) bool {
	constraints := p.byKey[candidate.String()]
	for _, c := range constraints {
		switch c.Type {
		case ConstraintMaxCourses:
			var params maxCoursesParams
			if err := json.Unmarshal(c.Params, &params); err != nil || params.Max <= 0 {
				continue
			}
			if countAssigned(prior, candidate) >= params.Max {
				return false
			}
		case ConstraintDistinctSubjects:
			for _, a := range prior {
				if a.Requirement != candidate || a.Course == nil {
					continue
				}
				if a.Course.SubjectCode == course.SubjectCode {
					return false
				}
			}
		case ConstraintAfterRequirement:
			var params afterRequirementParams
			if err := json.Unmarshal(c.Params, &params); err != nil || params.Requirement == "" {
				continue
			}
			if !hasAssignment(prior, params.Requirement) {
				return false
			}
		}
	}
	return true
}

func countAssigned(prior []PriorAssignment, key RequirementKey) int {
	n := 0
	for _, a := range prior {
		if a.Requirement == key {
			n++
		}
	}
	return n
}

func hasAssignment(prior []PriorAssignment, key string) bool {
	for _, a := range prior {
		if a.Requirement.String() == key {
			return true
		}
	}
	return false
}
