package fulfillment

import (
	"sort"

	"github.com/planvault/degree-audit/internal/domain/plan"
	"github.com/planvault/degree-audit/internal/domain/program"
	"github.com/planvault/degree-audit/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FULFILLMENT ASSIGNER
// A pure function from a plan snapshot to a fresh fulfillment set. The caller
// owns persistence: delete the old set and insert the new one in a single
// transaction. State is rebuilt from scratch every run, which makes reruns on
// unchanged input idempotent.
// ══════════════════════════════════════════════════════════════════════════════

// Assigner computes fulfillment records for a plan across its linked
// programs.
type Assigner struct {
	matcher *Matcher
	log     *logger.Logger
}

// NewAssigner builds an assigner.
func NewAssigner(log *logger.Logger) *Assigner {
	if log == nil {
		log = logger.Default()
	}
	return &Assigner{matcher: NewMatcher(log), log: log}
}

// programState is the per-program mutable state of one run, owned exclusively
// by that run and discarded at completion.
type programState struct {
	link    plan.PlanProgram
	prog    *program.Program
	pairs   program.DoubleCountMap
	policy  program.Policy
	credits map[program.RequirementKey]float64
	prior   []program.PriorAssignment
	records []plan.Fulfillment
}

func (s *programState) full(m Match) bool {
	return s.credits[m.Key] >= m.CreditsRequired
}

// Run walks planned courses in plan order and, for each, every linked program
// independently. Courses without a resolvable catalog record are skipped.
func (a *Assigner) Run(snap *plan.Snapshot) []plan.Fulfillment {
	states := make([]*programState, 0, len(snap.Programs))
	for _, ps := range snap.Programs {
		states = append(states, &programState{
			link:    ps.PlanProgram,
			prog:    ps.Program,
			pairs:   program.BuildDoubleCountMap(ps.Program.Requirements),
			policy:  program.NewConstraintPolicy(ps.Program.Requirements),
			credits: make(map[program.RequirementKey]float64),
		})
	}

	for _, view := range snap.Courses {
		if !view.Resolved() {
			a.log.Warn("skipping unresolvable planned course",
				logger.PlanID(snap.Plan.ID),
				logger.String("planned_course_id", view.PlannedCourse.ID),
			)
			continue
		}
		for _, st := range states {
			a.assignCourse(st, view)
		}
	}

	var out []plan.Fulfillment
	for _, st := range states {
		out = append(out, st.records...)
	}
	return out
}

// assignCourse runs the candidate walk for one course in one program: a
// primary pass over the sorted matches, then exactly one retry pass over the
// deferred ones.
func (a *Assigner) assignCourse(st *programState, view plan.PlannedCourseView) {
	matches := a.matcher.FindMatchingRequirements(view.Course, st.prog)
	if len(matches) == 0 {
		return
	}

	// Unfilled requirements come first; within a fullness class higher
	// specificity wins. Stable, so equal candidates keep matcher order.
	sort.SliceStable(matches, func(i, j int) bool {
		fi, fj := st.full(matches[i]), st.full(matches[j])
		if fi != fj {
			return !fi
		}
		return matches[i].Specificity > matches[j].Specificity
	})

	var assigned []program.RequirementKey
	var deferred []Match

	for i, m := range matches {
		if containsKey(assigned, m.Key) {
			continue
		}
		if st.full(m) && anyOtherUnfilled(st, matches, i) {
			continue
		}
		if !canShareWithAll(st.pairs, assigned, m.Key) {
			continue
		}
		if !st.policy.Allow(view.Course, m.Key, st.prior) {
			deferred = append(deferred, m)
			continue
		}
		a.commit(st, view, m, &assigned)
	}

	// Single retry pass: enforcement checks may pass now that more
	// assignments exist. Still-blocked matches are dropped for this course.
	for _, m := range deferred {
		if containsKey(assigned, m.Key) {
			continue
		}
		if !canShareWithAll(st.pairs, assigned, m.Key) {
			continue
		}
		if !st.policy.Allow(view.Course, m.Key, st.prior) {
			continue
		}
		a.commit(st, view, m, &assigned)
	}
}

func (a *Assigner) commit(st *programState, view plan.PlannedCourseView, m Match, assigned *[]program.RequirementKey) {
	credits := view.Credits()
	record := plan.NewFulfillment(st.link.ID, m.Key, view.PlannedCourse.ID, credits)

	st.records = append(st.records, record)
	st.credits[m.Key] += credits
	st.prior = append(st.prior, program.PriorAssignment{
		Requirement: m.Key,
		Course:      view.Course,
		Credits:     credits,
	})
	*assigned = append(*assigned, m.Key)

	a.log.Debug("assigned course to requirement",
		logger.ProgramID(st.prog.ID),
		logger.CourseCode(view.Course.Code()),
		logger.RequirementID(m.Key.String()),
		logger.Credits(credits),
		logger.String("semester", view.PlannedCourse.SemesterLabel()),
	)
}

// anyOtherUnfilled reports whether any candidate besides matches[skip] is
// still below its credit target. A full requirement only receives an overflow
// assignment when every alternative is exhausted.
func anyOtherUnfilled(st *programState, matches []Match, skip int) bool {
	for i, m := range matches {
		if i == skip {
			continue
		}
		if !st.full(m) {
			return true
		}
	}
	return false
}

// canShareWithAll checks the double-count map against every requirement this
// course is already assigned to in this program.
func canShareWithAll(pairs program.DoubleCountMap, assigned []program.RequirementKey, candidate program.RequirementKey) bool {
	for _, key := range assigned {
		if !pairs.CanDoubleCount(key, candidate) {
			return false
		}
	}
	return true
}

func containsKey(keys []program.RequirementKey, key program.RequirementKey) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// PREVIEW
// ══════════════════════════════════════════════════════════════════════════════

// PreviewAssign builds a synthetic fulfillment set for a program not linked
// to the plan: each course contributes only its single highest-specificity
// match, with no double-counting, overflow, or deferred retry. A cheap
// approximation for "what if I added this program".
func (a *Assigner) PreviewAssign(snap *plan.Snapshot, prog *program.Program) []plan.Fulfillment {
	var out []plan.Fulfillment
	for _, view := range snap.Courses {
		if !view.Resolved() {
			continue
		}
		matches := a.matcher.FindMatchingRequirements(view.Course, prog)
		if len(matches) == 0 {
			continue
		}
		best := matches[0]
		out = append(out, plan.NewFulfillment("", best.Key, view.PlannedCourse.ID, view.Credits()))
	}
	return out
}
