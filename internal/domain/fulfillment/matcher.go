// Package fulfillment implements the matcher and the assigner: finding the
// requirements a course can satisfy and deciding which of them it actually
// fulfills under the double-counting, overflow, and enforcement rules.
package fulfillment

import (
	"sort"

	"github.com/planvault/degree-audit/internal/domain/catalog"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUIREMENT MATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Match is one candidate (section, requirement) pairing for a course.
// Ephemeral: matches are computed per run and never persisted.
type Match struct {
	Key             program.RequirementKey
	CreditsRequired float64
	Specificity     float64
}

// Matcher evaluates a program's requirement tree against courses.
type Matcher struct {
	log *logger.Logger
}

// NewMatcher builds a matcher.
func NewMatcher(log *logger.Logger) *Matcher {
	if log == nil {
		log = logger.Default()
	}
	return &Matcher{log: log}
}

// FindMatchingRequirements walks every section and requirement in program
// order, collects a Match for each filter rule the course satisfies, and
// returns them sorted by specificity descending. The sort is stable so ties
// keep traversal order. Sections or requirements without ids are logged and
// skipped; a partial tree still yields partial matches.
func (m *Matcher) FindMatchingRequirements(course *catalog.Course, prog *program.Program) []Match {
	var matches []Match

	for _, section := range prog.Requirements.Sections {
		if !section.WellFormed() {
			m.log.Warn("skipping malformed section",
				logger.ProgramID(prog.ID),
				logger.String("section_title", section.Title),
			)
			continue
		}
		for _, req := range section.Requirements {
			if !req.WellFormed() {
				m.log.Warn("skipping malformed requirement",
					logger.ProgramID(prog.ID),
					logger.String("section_id", section.ID),
					logger.String("requirement_title", req.Title),
				)
				continue
			}
			if !req.Rule.IsFilterRule() {
				continue
			}
			if !catalog.Evaluate(course, req.Rule.Filter) {
				continue
			}
			matches = append(matches, Match{
				Key:             program.Key(section.ID, req.ID),
				CreditsRequired: req.CreditsRequired,
				Specificity:     catalog.Specificity(req.Rule.Filter),
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Specificity > matches[j].Specificity
	})
	return matches
}
