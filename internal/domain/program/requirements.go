// Package program contains the degree program domain model: the structured
// requirement tree (sections, requirements, rules), the double-count map
// derived from declared constraints, and the enforcement policy consulted by
// the fulfillment assigner.
package program

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/planvault/degree-audit/internal/domain/catalog"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PROGRAM
// ══════════════════════════════════════════════════════════════════════════════

// Program is a degree program a plan can be audited against.
type Program struct {
	// ID is the unique program identifier (UUID in string form).
	ID string

	// SchoolID scopes the program to one school.
	SchoolID string

	// Name is the display name, e.g. "Computer Science B.S.".
	Name string

	// Kind distinguishes majors, minors, and general-education cores.
	Kind string

	// Requirements is the parsed requirement tree.
	Requirements Requirements

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT TREE
// ══════════════════════════════════════════════════════════════════════════════

// Requirements is the ordered section tree of one program. Program-level
// constraints apply to the fulfillment set of the whole program.
type Requirements struct {
	Sections    []Section    `json:"sections"`
	Constraints []Constraint `json:"constraints,omitempty"`
}

// Section groups requirements under one credit target.
type Section struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	CreditsRequired float64       `json:"creditsRequired"`
	Requirements    []Requirement `json:"requirements"`
	Constraints     []Constraint  `json:"constraints,omitempty"`
}

// Requirement is one leaf of the tree, satisfied by courses via its rule.
type Requirement struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	CreditsRequired float64      `json:"creditsRequired"`
	Rule            Rule         `json:"rule"`
	Constraints     []Constraint `json:"constraints,omitempty"`
}

// Constraint is a structured, typed annotation on a section or requirement.
// The engine interprets the types it knows (see constraints.go) and carries
// unknown types through untouched.
type Constraint struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RequirementKey identifies one requirement inside one program. Fulfillment
// records persist its string form "sectionId.requirementId".
type RequirementKey struct {
	SectionID     string
	RequirementID string
}

// Key builds a RequirementKey.
func Key(sectionID, requirementID string) RequirementKey {
	return RequirementKey{SectionID: sectionID, RequirementID: requirementID}
}

// String returns the persisted "sectionId.requirementId" form.
func (k RequirementKey) String() string {
	return k.SectionID + "." + k.RequirementID
}

// ══════════════════════════════════════════════════════════════════════════════
// RULE UNION
// Only take_any_courses is evaluated by this engine. Other rule kinds are
// produced and consumed by a separate evaluation component; their payloads are
// preserved verbatim and they never match a course here.
// ══════════════════════════════════════════════════════════════════════════════

// RuleKind discriminates rule variants.
type RuleKind string

const (
	// RuleTakeAnyCourses matches any course satisfying an embedded filter.
	RuleTakeAnyCourses RuleKind = "take_any_courses"
)

// Rule is a discriminated union over requirement rule kinds.
type Rule struct {
	// Kind discriminates the variant.
	Kind RuleKind

	// Filter is set for take_any_courses rules.
	Filter catalog.CourseFilter

	// Raw preserves the payload of rule kinds this engine does not evaluate.
	Raw json.RawMessage
}

// IsFilterRule reports whether the rule is engine-evaluated.
func (r Rule) IsFilterRule() bool {
	return r.Kind == RuleTakeAnyCourses && r.Filter != nil
}

type ruleEnvelope struct {
	Kind   RuleKind        `json:"kind"`
	Filter json.RawMessage `json:"filter,omitempty"`
}

// UnmarshalJSON decodes the rule union, keeping unknown kinds opaque.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var env ruleEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("program: decode rule: %w", err)
	}

	r.Kind = env.Kind
	if env.Kind == RuleTakeAnyCourses {
		if len(env.Filter) == 0 {
			return errors.New("program: take_any_courses rule missing filter")
		}
		filter, err := catalog.DecodeFilter(env.Filter)
		if err != nil {
			return err
		}
		r.Filter = filter
		return nil
	}

	r.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON encodes the rule union.
func (r Rule) MarshalJSON() ([]byte, error) {
	if r.Kind == RuleTakeAnyCourses {
		filterJSON, err := catalog.EncodeFilter(r.Filter)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ruleEnvelope{Kind: r.Kind, Filter: filterJSON})
	}
	if len(r.Raw) > 0 {
		return append(json.RawMessage(nil), r.Raw...), nil
	}
	return json.Marshal(ruleEnvelope{Kind: r.Kind})
}

// ══════════════════════════════════════════════════════════════════════════════
// PARSING & STRUCTURAL CHECKS
// ══════════════════════════════════════════════════════════════════════════════

// ErrMalformedEntry marks a section or requirement with a missing id. Such
// entries are logged and skipped by the matcher and the progress calculator;
// a partial program still reports partial progress.
var ErrMalformedEntry = errors.New("program: section or requirement missing id")

// ParseRequirements decodes a requirement tree from its JSON form.
func ParseRequirements(data []byte) (Requirements, error) {
	var reqs Requirements
	if err := json.Unmarshal(data, &reqs); err != nil {
		return Requirements{}, fmt.Errorf("program: parse requirements: %w", err)
	}
	return reqs, nil
}

// TotalCreditsRequired sums the section credit targets.
func (r Requirements) TotalCreditsRequired() float64 {
	var total float64
	for _, section := range r.Sections {
		total += section.CreditsRequired
	}
	return total
}

// FindRequirement looks up a requirement by key. The second return is false
// when the key has no matching entry in the tree.
func (r Requirements) FindRequirement(key RequirementKey) (*Requirement, bool) {
	for si := range r.Sections {
		if r.Sections[si].ID != key.SectionID {
			continue
		}
		for ri := range r.Sections[si].Requirements {
			if r.Sections[si].Requirements[ri].ID == key.RequirementID {
				return &r.Sections[si].Requirements[ri], true
			}
		}
	}
	return nil, false
}

// WellFormed reports whether a section and requirement carry the ids the
// engine needs to address them.
func (s Section) WellFormed() bool {
	return s.ID != ""
}

// WellFormed reports whether the requirement is addressable.
func (r Requirement) WellFormed() bool {
	return r.ID != ""
}
